package driver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dreamware/distsssp/internal/backend"
	"github.com/dreamware/distsssp/internal/ghost"
	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/relax"
	"github.com/dreamware/distsssp/internal/transport"
)

// Config bounds and tunes one BSP run.
type Config struct {
	// MaxIterations caps the number of supersteps; the driver halts and
	// logs a diagnostic if it is reached before the vote converges to
	// "nothing changed" (spec.md §6.3's --maxIterations).
	MaxIterations int
	// Src is the source vertex's global ID; its owning host seeds it to
	// distance 0 before the first round.
	Src pgraph.GID
	// Relax configures the relaxation kernel and commit phase's
	// parallelism. Only consulted when Backend is nil.
	Relax relax.Config
	// Backend overrides the compute back-end for this host's --pset
	// personality. When nil, New builds a backend.CPU over the supplied
	// state using Relax.
	Backend backend.Backend
}

// Result summarizes how a run ended.
type Result struct {
	Iterations int
	Converged  bool // true if the vote reached a fixed point before MaxIterations
}

// Driver runs the BSP superstep loop for one host's partition.
type Driver struct {
	graph   *pgraph.Graph
	tr      transport.Transport
	ghost   *ghost.Synchronizer
	votes   *voteReducer
	backend backend.Backend

	config Config
	log    zerolog.Logger
}

// New builds a Driver over graph/state/transport. It registers the
// ghost-cell and vote handlers on tr, so it must be constructed before
// the transport starts receiving traffic from peers.
//
// config.Backend, when set, selects this host's --pset personality; the
// driver then seeds the source and drives every round through it and does
// not touch state itself. When config.Backend is nil, New builds the CPU
// backend over state itself.
func New(graph *pgraph.Graph, state *nodestate.Store, tr transport.Transport, config Config, log zerolog.Logger) *Driver {
	be := config.Backend
	if be == nil {
		be = backend.NewCPUWithState(graph, state, config.Relax)
	}
	return &Driver{
		graph:   graph,
		tr:      tr,
		ghost:   ghost.New(graph, be, tr),
		votes:   newVoteReducer(tr),
		backend: be,
		config:  config,
		log:     log,
	}
}

// Run executes Bootstrap followed by the superstep loop, returning once
// every host has voted that nothing changed, or MaxIterations is reached.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	if err := d.ghost.Bootstrap(ctx); err != nil {
		return Result{}, fmt.Errorf("driver: bootstrap: %w", err)
	}
	d.seedSource()

	result := Result{Iterations: d.config.MaxIterations, Converged: false}
	for round := 0; round < d.config.MaxIterations; round++ {
		d.ghost.ResetChanged()

		// 1. Exchange: push each owner's committed distance to every host
		// replicating it and each replica's distance back to its owner, then
		// wait for the round's sync to land everywhere.
		if err := d.ghost.SendRound(ctx); err != nil {
			return Result{}, fmt.Errorf("driver: round %d ghost send: %w", round, err)
		}
		if err := d.tr.Barrier(ctx); err != nil {
			return Result{}, fmt.Errorf("driver: round %d exchange barrier: %w", round, err)
		}

		// 2. Compute: relax owned sources against the now-fresh current slots.
		changedLocally, err := d.backend.Relax(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("driver: round %d compute: %w", round, err)
		}

		// 3. Commit: normalize and swap every local vertex's buffers.
		if err := d.backend.Commit(ctx); err != nil {
			return Result{}, fmt.Errorf("driver: round %d commit: %w", round, err)
		}

		// 4. Vote: OR-reduce the changed flag across hosts.
		localVote := changedLocally || d.ghost.Changed()
		globalChanged, err := d.votes.reduce(ctx, localVote)
		if err != nil {
			return Result{}, fmt.Errorf("driver: round %d vote: %w", round, err)
		}
		if err := d.tr.Barrier(ctx); err != nil {
			return Result{}, fmt.Errorf("driver: round %d vote barrier: %w", round, err)
		}

		d.log.Debug().Int("round", round).Bool("changed", globalChanged).Msg("superstep complete")

		// 5. Terminate if nothing changed anywhere; otherwise loop.
		if !globalChanged {
			result = Result{Iterations: round + 1, Converged: true}
			break
		}
	}

	if !result.Converged {
		d.log.Warn().Int("maxIterations", d.config.MaxIterations).
			Msg("terminating after reaching maxIterations without convergence")
	}

	// Final synchronization so every replica reflects the finalized owner
	// distances, regardless of why the loop ended.
	if err := d.ghost.SendRound(ctx); err != nil {
		return Result{}, fmt.Errorf("driver: final ghost send: %w", err)
	}
	if err := d.tr.Barrier(ctx); err != nil {
		return Result{}, fmt.Errorf("driver: final barrier: %w", err)
	}
	return result, nil
}

// seedSource sets the source vertex's distance to 0 on the host that owns
// it; every other host leaves its local state at Sentinel.
func (d *Driver) seedSource() {
	lid, err := d.graph.G2L(d.config.Src)
	if err != nil || !d.graph.IsOwned(lid) {
		return
	}
	d.backend.SetDistance(lid, 0)
}
