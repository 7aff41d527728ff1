package transport

import (
	"context"
	"fmt"
	"sync"
)

// LoopTransport is an in-process Transport: every "host" is a Registry in
// the same address space, and Send/Broadcast dispatch directly into the
// target's Registry on the caller's goroutine. It is grounded on the
// in-process cluster the torua test suite drives directly against
// handlers rather than over HTTP, and is what the driver and ghost tests
// in this module run against.
//
// Barrier is a simple generation-counted rendezvous: every host calls
// Barrier with the same round index implicitly (call count), and the last
// caller to arrive releases everyone.
type LoopTransport struct {
	hostID   uint32
	numHosts uint32

	registries []*Registry  // indexed by host ID, shared across all hosts in the group
	barrier    *loopBarrier // shared by every host in the group
}

// loopBarrier is the rendezvous state shared by every LoopTransport in a
// group, held by pointer so all of them block on the same sync.Cond.
type loopBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	gen     uint64
}

// NewLoopGroup builds numHosts LoopTransports that share one barrier and
// can address one another by host ID.
func NewLoopGroup(numHosts uint32) []*LoopTransport {
	registries := make([]*Registry, numHosts)
	for i := range registries {
		registries[i] = NewRegistry()
	}

	barrier := &loopBarrier{}
	barrier.cond = sync.NewCond(&barrier.mu)

	group := make([]*LoopTransport, numHosts)
	for i := uint32(0); i < numHosts; i++ {
		group[i] = &LoopTransport{
			hostID:     i,
			numHosts:   numHosts,
			registries: registries,
			barrier:    barrier,
		}
	}
	return group
}

func (t *LoopTransport) HostID() uint32   { return t.hostID }
func (t *LoopTransport) NumHosts() uint32 { return t.numHosts }

func (t *LoopTransport) RegisterHandler(name string, fn HandlerFunc) {
	t.registries[t.hostID].Register(name, fn)
}

func (t *LoopTransport) Send(ctx context.Context, dest uint32, handler string, payload []byte) error {
	if dest >= t.numHosts {
		return fmt.Errorf("transport: send to unknown host %d", dest)
	}
	return t.registries[dest].Dispatch(t.hostID, handler, payload)
}

func (t *LoopTransport) Broadcast(ctx context.Context, handler string, payload []byte, includeSelf bool) error {
	if includeSelf {
		if err := t.registries[t.hostID].Dispatch(t.hostID, handler, payload); err != nil {
			return err
		}
	}
	return t.relayForward(t.hostID, t.hostID, handler, payload)
}

// relayForward walks the k=2 broadcast tree rooted at src, delivering to
// every descendant of relay exactly once. Loop transport has no network
// hop, so the originating call drives the entire recursive fan-out
// inline; Network.cpp's bcastForward does the equivalent one hop at a
// time, each host forwarding only to its own children.
func (t *LoopTransport) relayForward(relay, src uint32, handler string, payload []byte) error {
	for _, child := range broadcastChildren(relay, src, t.numHosts) {
		if err := t.registries[child].Dispatch(src, handler, payload); err != nil {
			return err
		}
		if err := t.relayForward(child, src, handler, payload); err != nil {
			return err
		}
	}
	return nil
}

func (t *LoopTransport) Barrier(ctx context.Context) error {
	b := t.barrier
	b.mu.Lock()
	myGen := b.gen
	b.arrived++
	if b.arrived == int(t.numHosts) {
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		b.mu.Unlock()
		return nil
	}
	for b.gen == myGen {
		b.cond.Wait()
	}
	b.mu.Unlock()
	return nil
}

func (t *LoopTransport) Close() error { return nil }
