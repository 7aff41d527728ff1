package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/relax"
)

func buildTriangle(t *testing.T) *pgraph.Graph {
	t.Helper()
	g, err := pgraph.New(
		0, 0,
		[]pgraph.GID{0, 1, 2},
		nil,
		3,
		[][]pgraph.Edge{
			{{Dst: 1, Weight: 3}},
			{{Dst: 2, Weight: 4}},
			{},
		},
	)
	require.NoError(t, err)
	return g
}

func TestMarshalDropsNothingForAWellFormedGraph(t *testing.T) {
	g := buildTriangle(t)
	m := Marshal(g)

	assert.Equal(t, 3, m.NumNodes)
	assert.Equal(t, 3, m.NumOwned)
	assert.Equal(t, 2, m.NumEdges)
	assert.Equal(t, []int32{0, 1, 2, 2}, m.RowStart)
	assert.Equal(t, []int32{1, 2}, m.EdgeDst)
	assert.Equal(t, []int32{3, 4}, m.EdgeWt)
}

func TestCPUBackendRunsOneRoundOfRelaxationAndCommit(t *testing.T) {
	g := buildTriangle(t)
	be := NewCPU(g, relax.Config{Workers: 1})
	be.SetDistance(0, 0)

	changed, err := be.Relax(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, be.Commit(context.Background()))

	assert.Equal(t, int32(0), be.Distance(0))
	assert.Equal(t, int32(3), be.Distance(1))
	assert.Equal(t, nodestate.Sentinel, be.Distance(2))

	changed, err = be.Relax(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, be.Commit(context.Background()))
	assert.Equal(t, int32(7), be.Distance(2))
}

func TestCPUBackendMinDistanceOnlyLowers(t *testing.T) {
	g := buildTriangle(t)
	be := NewCPU(g, relax.Config{})

	assert.True(t, be.MinDistance(1, 5))
	assert.False(t, be.MinDistance(1, 10))
	assert.True(t, be.MinDistance(1, 2))
	assert.Equal(t, int32(2), be.Distance(1))
}

func TestStubBackendsReportUnavailable(t *testing.T) {
	g := buildTriangle(t)
	m := Marshal(g)

	cuda := NewCUDAStub(m)
	_, err := cuda.Relax(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, cuda.Commit(context.Background()), ErrBackendUnavailable)

	opencl := NewOpenCLStub(m)
	_, err = opencl.Relax(context.Background())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestStubBackendStillTracksSeededDistances(t *testing.T) {
	g := buildTriangle(t)
	m := Marshal(g)
	cuda := NewCUDAStub(m)

	assert.Equal(t, nodestate.Sentinel, cuda.Distance(1))
	cuda.SetDistance(0, 0)
	assert.Equal(t, int32(0), cuda.Distance(0))
	assert.True(t, cuda.MinDistance(1, 5))
	assert.False(t, cuda.MinDistance(1, 9))
}
