package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/transport"
)

// DistanceStore is the narrow read/write surface Synchronizer needs from
// whatever is holding this host's per-vertex distances. Both
// *nodestate.Store and backend.Backend satisfy it, so a Synchronizer can
// sync ghost cells for either the CPU path directly or through a Backend.
type DistanceStore interface {
	Distance(lid pgraph.LID) int32
	MinDistance(lid pgraph.LID, v int32) bool
}

const (
	handlerRegister     = "ghost.register"
	handlerSetNodeValue = "ghost.setNodeValue"
)

type registerMsg struct {
	GID uint32 `json:"gid"`
}

type setNodeValueMsg struct {
	GID   uint32 `json:"gid"`
	Value int32  `json:"value"`
}

// Synchronizer keeps every ghost replica's distance in sync with its
// owner, once per BSP round (spec.md §4.5).
type Synchronizer struct {
	graph *pgraph.Graph
	state DistanceStore
	tr    transport.Transport

	mu         sync.Mutex
	interested map[pgraph.GID][]uint32 // owner side only: gid -> hosts replicating it

	changed atomic.Bool // whether a receive this round actually lowered a local distance
}

// New builds a Synchronizer over graph and state, registering its
// handlers on tr. Bootstrap must be called once, after every host in the
// run has constructed its Synchronizer, before the first SendRound.
func New(graph *pgraph.Graph, state DistanceStore, tr transport.Transport) *Synchronizer {
	s := &Synchronizer{
		graph:      graph,
		state:      state,
		tr:         tr,
		interested: make(map[pgraph.GID][]uint32),
	}
	tr.RegisterHandler(handlerRegister, s.handleRegister)
	tr.RegisterHandler(handlerSetNodeValue, s.handleSetNodeValue)
	return s
}

// Bootstrap tells every vertex owner which hosts hold a ghost replica of
// its vertices, then blocks at a barrier so no host starts SendRound
// before every owner has heard from every replica holder.
func (s *Synchronizer) Bootstrap(ctx context.Context) error {
	start, end := s.graph.GhostRange()
	for lid := start; lid < end; lid++ {
		gid, err := s.graph.L2G(lid)
		if err != nil {
			return err
		}
		owner, err := s.graph.HostOf(gid)
		if err != nil {
			return fmt.Errorf("ghost: resolve owner of ghost gid=%d: %w", gid, err)
		}
		payload, err := json.Marshal(registerMsg{GID: uint32(gid)})
		if err != nil {
			return err
		}
		if err := s.tr.Send(ctx, owner, handlerRegister, payload); err != nil {
			return fmt.Errorf("ghost: register gid=%d with host %d: %w", gid, owner, err)
		}
	}
	return s.tr.Barrier(ctx)
}

func (s *Synchronizer) handleRegister(from uint32, payload []byte) error {
	var msg registerMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("ghost: decode register message: %w", err)
	}
	gid := pgraph.GID(msg.GID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.interested[gid] {
		if h == from {
			return nil
		}
	}
	s.interested[gid] = append(s.interested[gid], from)
	return nil
}

// SendRound pushes every owned vertex's current distance to each host
// that registered interest in it during Bootstrap, and every ghost
// replica's current distance back to the replica's owner, so that a
// distance relaxation lowered on a replica reaches the owning host.
// Owned vertices with no replica anywhere are skipped, since no one has
// asked for them, as are ghost replicas still at nodestate.Sentinel.
func (s *Synchronizer) SendRound(ctx context.Context) error {
	for lid := pgraph.LID(0); int(lid) < s.graph.NumNodes(); lid++ {
		gid, err := s.graph.L2G(lid)
		if err != nil {
			return err
		}

		s.mu.Lock()
		hosts := append([]uint32(nil), s.interested[gid]...)
		s.mu.Unlock()
		value := s.state.Distance(lid)
		if !s.graph.IsOwned(lid) && value < nodestate.Sentinel {
			owner, err := s.graph.HostOf(gid)
			if err != nil {
				return err
			}
			hosts = []uint32{owner}
		}
		if len(hosts) == 0 {
			continue
		}

		payload, err := json.Marshal(setNodeValueMsg{GID: uint32(gid), Value: value})
		if err != nil {
			return err
		}
		for _, host := range hosts {
			if err := s.tr.Send(ctx, host, handlerSetNodeValue, payload); err != nil {
				return fmt.Errorf("ghost: send gid=%d to host %d: %w", gid, host, err)
			}
		}
	}
	return nil
}

func (s *Synchronizer) handleSetNodeValue(from uint32, payload []byte) error {
	var msg setNodeValueMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("ghost: decode setNodeValue message: %w", err)
	}
	lid, err := s.graph.G2L(pgraph.GID(msg.GID))
	if err != nil {
		return fmt.Errorf("ghost: setNodeValue for unknown local gid=%d: %w", msg.GID, err)
	}
	if s.state.MinDistance(lid, msg.Value) {
		s.changed.Store(true)
	}
	return nil
}

// Changed reports whether any setNodeValue receive since the last
// ResetChanged actually lowered a local (replica or owned) distance. The driver folds
// this into its per-round vote to halt.
func (s *Synchronizer) Changed() bool { return s.changed.Load() }

// ResetChanged clears the changed flag at the start of a new round.
func (s *Synchronizer) ResetChanged() { s.changed.Store(false) }
