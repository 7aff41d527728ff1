package relax

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
)

// Config controls the relaxation kernel's parallelism.
type Config struct {
	// Workers is the number of goroutines the kernel fans out over. Zero
	// selects runtime.NumCPU().
	Workers int
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Kernel runs the per-round push relaxation: for every owned vertex whose
// current distance is finite, it walks the vertex's out-edges and CASes a
// candidate distance into each destination's next slot (spec.md §4.3).
// It reports whether any vertex in this host's partition changed, which
// feeds the driver's vote-to-halt.
type Kernel struct {
	graph  *pgraph.Graph
	state  *nodestate.Store
	config Config
}

// NewKernel builds a relaxation kernel over graph and state.
func NewKernel(graph *pgraph.Graph, state *nodestate.Store, config Config) *Kernel {
	return &Kernel{graph: graph, state: state, config: config}
}

// Run performs one relaxation round over every owned vertex and returns
// whether any destination's next slot was lowered. Owned vertices are
// partitioned across workers by index range; each worker only ever writes
// through RelaxNext, whose CAS loop makes concurrent writers to the same
// destination safe regardless of partitioning.
func (k *Kernel) Run(ctx context.Context) (changed bool, err error) {
	start, end := k.graph.OwnedRange()
	n := int(end - start)
	if n == 0 {
		return false, nil
	}

	workers := k.config.workers()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var anyChanged atomicBool
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := start + pgraph.LID(w*chunk)
		hi := lo + pgraph.LID(chunk)
		if hi > end {
			hi = end
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			return k.relaxRange(ctx, lo, hi, &anyChanged)
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return anyChanged.Load(), nil
}

func (k *Kernel) relaxRange(ctx context.Context, lo, hi pgraph.LID, anyChanged *atomicBool) error {
	for lid := lo; lid < hi; lid++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dist := k.state.Current(nodestate.DistField, lid)
		if dist >= nodestate.Sentinel {
			continue
		}

		edges, err := k.graph.Edges(lid)
		if err != nil {
			return err
		}
		for _, e := range edges {
			candidate := addClamped(dist, e.Weight)
			if k.state.RelaxNext(nodestate.DistField, e.Dst, candidate) {
				anyChanged.Store(true)
			}
		}
	}
	return nil
}

// addClamped adds weight to dist, clamping to Sentinel instead of
// overflowing, per spec.md §7's Overflow policy. Edge weights are not
// checked against nodestate.MaxEdgeWeight anywhere; a sum that wraps past
// int32 range is caught by the sum < dist test and also clamps to Sentinel.
func addClamped(dist, weight int32) int32 {
	sum := dist + weight
	if sum > nodestate.Sentinel || sum < dist {
		return nodestate.Sentinel
	}
	return sum
}
