package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dreamware/distsssp/internal/pgraph"
)

// LoadShard reads the transpose shard at path and builds this host's
// pgraph.Graph from it.
//
// Format, whitespace-separated tokens, one record per line:
//
//	hostID gOffset numOwned numGhost
//	<numOwned+1 row-start offsets, one token each, across one or more lines>
//	<numEdges lines of "dstLID weight">
//	<numGhost lines of "ghostGID ownerHostID">
//
// Owned vertex gid is gOffset+lid (pgraph's own convention); ghost
// vertices are assigned LIDs numOwned, numOwned+1, ... in the order their
// ghost-owner lines appear, and row_start has no entries for them since
// ghosts never own edges.
func LoadShard(path string) (*pgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse builds a Graph from r using LoadShard's format, split out so tests
// and callers with an in-memory shard don't need a file on disk.
func Parse(r io.Reader) (*pgraph.Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	tok := newTokenizer(sc)

	hostID, err := tok.uint32()
	if err != nil {
		return nil, fmt.Errorf("loader: read hostID: %w", err)
	}
	gOffset, err := tok.uint32()
	if err != nil {
		return nil, fmt.Errorf("loader: read gOffset: %w", err)
	}
	numOwned, err := tok.int()
	if err != nil {
		return nil, fmt.Errorf("loader: read numOwned: %w", err)
	}
	numGhost, err := tok.int()
	if err != nil {
		return nil, fmt.Errorf("loader: read numGhost: %w", err)
	}
	if numOwned < 0 || numGhost < 0 {
		return nil, fmt.Errorf("loader: negative counts numOwned=%d numGhost=%d", numOwned, numGhost)
	}

	rowStart := make([]int, numOwned+1)
	for i := range rowStart {
		v, err := tok.int()
		if err != nil {
			return nil, fmt.Errorf("loader: read row_start[%d]: %w", i, err)
		}
		rowStart[i] = v
	}
	numNodes := numOwned + numGhost

	l2g := make([]pgraph.GID, numNodes)
	for lid := 0; lid < numOwned; lid++ {
		l2g[lid] = pgraph.GID(gOffset) + pgraph.GID(lid)
	}

	adj := make([][]pgraph.Edge, numNodes)
	for src := 0; src < numOwned; src++ {
		n := rowStart[src+1] - rowStart[src]
		if n < 0 {
			return nil, fmt.Errorf("loader: row_start is not non-decreasing at owned lid %d", src)
		}
		edges := make([]pgraph.Edge, 0, n)
		for i := 0; i < n; i++ {
			dst, err := tok.int()
			if err != nil {
				return nil, fmt.Errorf("loader: read edge %d dst for owned lid %d: %w", i, src, err)
			}
			weight, err := tok.int()
			if err != nil {
				return nil, fmt.Errorf("loader: read edge %d weight for owned lid %d: %w", i, src, err)
			}
			if dst < 0 || dst >= numNodes {
				continue // dropped: destination outside the local partition
			}
			edges = append(edges, pgraph.Edge{Dst: pgraph.LID(dst), Weight: int32(weight)})
		}
		adj[src] = edges
	}

	ghostOwner := make(map[pgraph.GID]uint32, numGhost)
	for i := 0; i < numGhost; i++ {
		gid, err := tok.uint32()
		if err != nil {
			return nil, fmt.Errorf("loader: read ghost %d gid: %w", i, err)
		}
		owner, err := tok.uint32()
		if err != nil {
			return nil, fmt.Errorf("loader: read ghost %d owner: %w", i, err)
		}
		lid := numOwned + i
		l2g[lid] = pgraph.GID(gid)
		ghostOwner[pgraph.GID(gid)] = owner
		adj[lid] = nil
	}

	graph, err := pgraph.New(hostID, gOffset, l2g, ghostOwner, numOwned, adj)
	if err != nil {
		return nil, fmt.Errorf("loader: build graph: %w", err)
	}
	return graph, nil
}
