package transport

import (
	"context"
	"fmt"
	"sync"
)

// HandlerFunc is invoked on the receiving host when a message addressed to
// its registered name arrives, either via Send or via Broadcast. Per
// spec.md §4.7, handler invocation is single-threaded per host: the
// Registry below serializes all dispatches through a single mutex so two
// handlers never run concurrently on the same host.
type HandlerFunc func(from uint32, payload []byte) error

// Transport is the network contract the BSP driver and ghost-cell
// synchronizer consume (spec.md §4.7): reliable FIFO point-to-point send,
// exactly-once broadcast, and a global barrier. Receipt is implicit — the
// transport invokes the named handler on each recipient.
type Transport interface {
	// HostID returns this process's host identifier.
	HostID() uint32
	// NumHosts returns the total number of hosts in the run.
	NumHosts() uint32

	// Send delivers payload to handler on dest, reliably and in FIFO order
	// with respect to every other Send from this host to dest.
	Send(ctx context.Context, dest uint32, handler string, payload []byte) error

	// Broadcast delivers payload to handler on every host exactly once. If
	// includeSelf is true the local handler also runs.
	Broadcast(ctx context.Context, handler string, payload []byte, includeSelf bool) error

	// Barrier blocks until every host has called Barrier for this round.
	Barrier(ctx context.Context) error

	// RegisterHandler associates name with fn for both Send and Broadcast
	// delivery on this host.
	RegisterHandler(name string, fn HandlerFunc)

	// Close releases any resources (listeners, connections) held by the
	// transport.
	Close() error
}

// Registry is a static, string-keyed handler table shared by every
// Transport implementation in this package. Per spec.md §9's design note,
// remote calls are dispatched by stable name rather than by raw function
// pointer, since function pointers do not survive a process boundary.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register associates name with fn, overwriting any previous registration.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Dispatch invokes the handler registered under name with the given sender
// and payload. The registry's mutex is held for the duration of the call,
// which is what guarantees single-threaded handler invocation per host.
func (r *Registry) Dispatch(from uint32, name string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("transport: no handler registered for %q", name)
	}
	return fn(from, payload)
}

// broadcastTreeWidth is the branching factor k used by the k-ary broadcast
// forwarding tree of spec.md §4.7.
const broadcastTreeWidth = 2

// effectiveID remaps a real host ID into the broadcast tree rooted at src,
// so that src itself is always effective ID 0. Mirrors
// original_source/exp/src/Network.cpp's getEID.
func effectiveID(real, src, numHosts uint32) uint32 {
	return (real + numHosts - src) % numHosts
}

// realHostID is the inverse of effectiveID. Mirrors Network.cpp's getRID.
func realHostID(eid, src, numHosts uint32) uint32 {
	return (eid + src) % numHosts
}

// broadcastChildren returns the real host IDs that the current host (real
// ID "self") must forward a broadcast from src to, under the k=2 tree.
func broadcastChildren(self, src, numHosts uint32) []uint32 {
	eid := effectiveID(self, src, numHosts)
	var children []uint32
	for i := uint32(0); i < broadcastTreeWidth; i++ {
		childEID := eid*broadcastTreeWidth + i + 1
		if childEID < numHosts {
			children = append(children, realHostID(childEID, src, numHosts))
		}
	}
	return children
}
