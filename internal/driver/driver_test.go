package driver

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/relax"
	"github.com/dreamware/distsssp/internal/transport"
)

// buildTwoHostBridge builds a two-host partition: host 0 owns GIDs {0,1},
// replicates {2}; host 1 owns {2,3}, replicates {1}. Edge 0->1 (w=5) stays
// on host 0, edge 2->3 (w=10) stays on host 1, and edge 1->2 (w=2) crosses
// the partition boundary into host 0's replica of 2, which host 1 owns.
func buildTwoHostBridge(t *testing.T) (*pgraph.Graph, *pgraph.Graph) {
	t.Helper()

	gA, err := pgraph.New(
		0, 0,
		[]pgraph.GID{0, 1, 2},
		map[pgraph.GID]uint32{2: 1},
		2,
		[][]pgraph.Edge{
			{{Dst: 1, Weight: 5}},
			{{Dst: 2, Weight: 2}},
			{},
		},
	)
	require.NoError(t, err)

	gB, err := pgraph.New(
		1, 2,
		[]pgraph.GID{2, 3, 1},
		map[pgraph.GID]uint32{1: 0},
		2,
		[][]pgraph.Edge{
			{{Dst: 1, Weight: 10}}, // 2 -> 3, weight 10
			{},
			{},
		},
	)
	require.NoError(t, err)

	return gA, gB
}

func TestDriverRunConvergesOnTwoHostBridge(t *testing.T) {
	gA, gB := buildTwoHostBridge(t)
	group := transport.NewLoopGroup(2)

	stateA := nodestate.NewStore(gA.NumNodes())
	stateB := nodestate.NewStore(gB.NumNodes())

	log := zerolog.Nop()
	cfg := Config{MaxIterations: 8, Src: 0, Relax: relax.Config{Workers: 2}}
	dA := New(gA, stateA, group[0], cfg, log)
	dB := New(gB, stateB, group[1], cfg, log)

	type outcome struct {
		res Result
		err error
	}
	results := make(chan outcome, 2)
	go func() {
		r, err := dA.Run(context.Background())
		results <- outcome{r, err}
	}()
	go func() {
		r, err := dB.Run(context.Background())
		results <- outcome{r, err}
	}()

	o1 := <-results
	o2 := <-results
	require.NoError(t, o1.err)
	require.NoError(t, o2.err)
	assert.True(t, o1.res.Converged)
	assert.True(t, o2.res.Converged)

	// Expected distances: 0=0, 1=5, 2=7 (5+2), 3=17 (7+10).
	assert.Equal(t, int32(0), stateA.Current(nodestate.DistField, 0))
	assert.Equal(t, int32(5), stateA.Current(nodestate.DistField, 1))

	lidGhost2, err := gA.G2L(2)
	require.NoError(t, err)
	assert.Equal(t, int32(7), stateA.Current(nodestate.DistField, lidGhost2))

	lidOwned2, err := gB.G2L(2)
	require.NoError(t, err)
	assert.Equal(t, int32(7), stateB.Current(nodestate.DistField, lidOwned2))

	lidOwned3, err := gB.G2L(3)
	require.NoError(t, err)
	assert.Equal(t, int32(17), stateB.Current(nodestate.DistField, lidOwned3))
}

func TestDriverRunReportsNonConvergenceAtIterationCap(t *testing.T) {
	// A long chain of single-host edges that needs more rounds than the
	// cap allows to fully propagate: each round only advances the frontier
	// by one hop, so maxIterations=1 must leave the tail unreached but
	// still report non-convergence rather than erroring.
	const n = 5
	l2g := make([]pgraph.GID, n)
	adj := make([][]pgraph.Edge, n)
	for i := 0; i < n; i++ {
		l2g[i] = pgraph.GID(i)
		if i+1 < n {
			adj[i] = []pgraph.Edge{{Dst: pgraph.LID(i + 1), Weight: 1}}
		} else {
			adj[i] = []pgraph.Edge{}
		}
	}
	g, err := pgraph.New(0, 0, l2g, nil, n, adj)
	require.NoError(t, err)

	group := transport.NewLoopGroup(1)
	state := nodestate.NewStore(n)
	log := zerolog.Nop()
	d := New(g, state, group[0], Config{MaxIterations: 1, Src: 0, Relax: relax.Config{Workers: 1}}, log)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)

	// Only the first hop (0->1) should have propagated in one round.
	assert.Equal(t, int32(1), state.Current(nodestate.DistField, 1))
	assert.Equal(t, nodestate.Sentinel, state.Current(nodestate.DistField, 4))
}

func TestDriverRunSingleHostUnreachableVertexStaysSentinel(t *testing.T) {
	// Vertex 1 has no edge into it and is not the source: it must remain
	// at Sentinel through convergence.
	l2g := []pgraph.GID{0, 1}
	adj := [][]pgraph.Edge{{}, {}}
	g, err := pgraph.New(0, 0, l2g, nil, 2, adj)
	require.NoError(t, err)

	group := transport.NewLoopGroup(1)
	state := nodestate.NewStore(2)
	log := zerolog.Nop()
	d := New(g, state, group[0], Config{MaxIterations: 4, Src: 0, Relax: relax.Config{}}, log)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, int32(0), state.Current(nodestate.DistField, 0))
	assert.Equal(t, nodestate.Sentinel, state.Current(nodestate.DistField, 1))
}
