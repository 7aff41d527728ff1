package pgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBridgeHostA constructs the two-host bridge graph from spec.md §8 scenario
// 2, returning host A's partition: owns {0,1}, ghost {2}, edge 0->1 (w=5)
// and cross-edge 1->2 (w=2).
func buildBridgeHostA(t *testing.T) *Graph {
	t.Helper()
	l2g := []GID{0, 1, 2}
	ghostOwner := map[GID]uint32{2: 1}
	adj := [][]Edge{
		{{Dst: 1, Weight: 5}},
		{{Dst: 2, Weight: 2}},
		nil,
	}
	g, err := New(0, 0, l2g, ghostOwner, 2, adj)
	require.NoError(t, err)
	return g
}

func TestG2LAndL2GAreInverse(t *testing.T) {
	g := buildBridgeHostA(t)
	for lid := LID(0); lid < 3; lid++ {
		gid, err := g.L2G(lid)
		require.NoError(t, err)
		gotLID, err := g.G2L(gid)
		require.NoError(t, err)
		assert.Equal(t, lid, gotLID)
	}
}

func TestG2LUnknownVertex(t *testing.T) {
	g := buildBridgeHostA(t)
	_, err := g.G2L(999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVertex))
}

func TestL2GOutOfRange(t *testing.T) {
	g := buildBridgeHostA(t)
	_, err := g.L2G(-1)
	require.ErrorIs(t, err, ErrUnknownVertex)
	_, err = g.L2G(3)
	require.ErrorIs(t, err, ErrUnknownVertex)
}

func TestHostOfOwnedAndGhost(t *testing.T) {
	g := buildBridgeHostA(t)

	owner, err := g.HostOf(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), owner)

	owner, err = g.HostOf(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), owner)
}

func TestEdgesRejectsGhostSource(t *testing.T) {
	g := buildBridgeHostA(t)
	_, err := g.Edges(2)
	require.ErrorIs(t, err, ErrUnknownVertex)
}

func TestOwnedAndGhostRangesArePrefixAndSuffix(t *testing.T) {
	g := buildBridgeHostA(t)

	start, end := g.OwnedRange()
	assert.Equal(t, LID(0), start)
	assert.Equal(t, LID(2), end)

	start, end = g.GhostRange()
	assert.Equal(t, LID(2), start)
	assert.Equal(t, LID(3), end)

	assert.True(t, g.IsOwned(0))
	assert.True(t, g.IsOwned(1))
	assert.False(t, g.IsOwned(2))
}

func TestNewRejectsMismatchedAdjacency(t *testing.T) {
	_, err := New(0, 0, []GID{0, 1}, nil, 1, [][]Edge{{}})
	require.Error(t, err)
}

func TestNewRejectsInvalidNumOwned(t *testing.T) {
	_, err := New(0, 0, []GID{0, 1}, nil, 5, [][]Edge{{}, {}})
	require.Error(t, err)
}

func TestNumEdgesCountsOnlyOwnedSources(t *testing.T) {
	g := buildBridgeHostA(t)
	assert.Equal(t, 2, g.NumEdges())
	assert.Equal(t, 2, g.NumOwned())
	assert.Equal(t, 3, g.NumNodes())
}
