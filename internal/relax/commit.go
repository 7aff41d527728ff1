package relax

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
)

// Committer runs the commit phase over every local vertex (owned and
// ghost): it collapses both distance slots to their minimum and flips the
// version bit (spec.md §4.4). Commit must not run concurrently with a
// Kernel.Run call against the same Store, since it reads the
// slot the kernel is CASing into and overwrites it with the minimum.
type Committer struct {
	graph  *pgraph.Graph
	state  *nodestate.Store
	config Config
}

// NewCommitter builds a committer over graph and state.
func NewCommitter(graph *pgraph.Graph, state *nodestate.Store, config Config) *Committer {
	return &Committer{graph: graph, state: state, config: config}
}

// Run commits every local vertex's distance field.
func (c *Committer) Run(ctx context.Context) error {
	n := c.state.Len()
	if n == 0 {
		return nil
	}

	workers := c.config.workers()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := pgraph.LID(w * chunk)
		hi := lo + pgraph.LID(chunk)
		if int(hi) > n {
			hi = pgraph.LID(n)
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for lid := lo; lid < hi; lid++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				c.state.Commit(nodestate.DistField, lid)
			}
			return nil
		})
	}
	return g.Wait()
}
