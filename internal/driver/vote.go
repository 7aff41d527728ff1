package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dreamware/distsssp/internal/transport"
)

const (
	handlerVoteLocal  = "driver.voteLocal"
	handlerVoteResult = "driver.voteResult"
)

type voteMsg struct {
	Changed bool `json:"changed"`
}

// voteReducer computes the logical OR of every host's per-round "did
// anything change" vote (spec.md §5's vote-to-halt), using host 0 as the
// reduction point: every host sends its local vote, host 0 ORs them and
// broadcasts the result back.
type voteReducer struct {
	tr       transport.Transport
	hostID   uint32
	numHosts uint32

	mu       sync.Mutex
	cond     *sync.Cond
	received int
	anyTrue  bool
	gen      uint64
	result   chan bool
}

func newVoteReducer(tr transport.Transport) *voteReducer {
	v := &voteReducer{
		tr:       tr,
		hostID:   tr.HostID(),
		numHosts: tr.NumHosts(),
		result:   make(chan bool, 1),
	}
	v.cond = sync.NewCond(&v.mu)
	tr.RegisterHandler(handlerVoteLocal, v.handleVoteLocal)
	tr.RegisterHandler(handlerVoteResult, v.handleVoteResult)
	return v
}

// reduce submits this host's local vote and blocks until the global OR is
// known to every host.
func (v *voteReducer) reduce(ctx context.Context, local bool) (bool, error) {
	payload, err := json.Marshal(voteMsg{Changed: local})
	if err != nil {
		return false, err
	}
	if err := v.tr.Send(ctx, 0, handlerVoteLocal, payload); err != nil {
		return false, fmt.Errorf("driver: send vote to coordinator: %w", err)
	}

	select {
	case result := <-v.result:
		return result, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (v *voteReducer) handleVoteLocal(from uint32, payload []byte) error {
	var msg voteMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("driver: decode vote: %w", err)
	}

	v.mu.Lock()
	v.received++
	if msg.Changed {
		v.anyTrue = true
	}
	ready := v.received == int(v.numHosts)
	var result bool
	if ready {
		result = v.anyTrue
		v.received = 0
		v.anyTrue = false
		v.gen++
	}
	v.mu.Unlock()

	if !ready {
		return nil
	}

	out, err := json.Marshal(voteMsg{Changed: result})
	if err != nil {
		return err
	}
	// Host 0's own vote is folded in above; it learns the result directly
	// rather than round-tripping a message to itself.
	v.result <- result
	if v.hostID != 0 {
		return nil
	}
	ctx := context.Background()
	for dest := uint32(1); dest < v.numHosts; dest++ {
		if err := v.tr.Send(ctx, dest, handlerVoteResult, out); err != nil {
			return fmt.Errorf("driver: broadcast vote result to host %d: %w", dest, err)
		}
	}
	return nil
}

func (v *voteReducer) handleVoteResult(from uint32, payload []byte) error {
	var msg voteMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("driver: decode vote result: %w", err)
	}
	v.result <- msg.Changed
	return nil
}
