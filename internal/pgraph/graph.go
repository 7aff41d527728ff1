package pgraph

import (
	"errors"
	"fmt"
)

// GID is a global vertex identifier, unique across the whole graph.
type GID uint32

// LID is a local vertex index on a single host: owned vertices occupy the
// contiguous prefix [0, NumOwned), ghost (replica) vertices occupy the
// contiguous suffix [NumOwned, NumNodes).
type LID int

// ErrUnknownVertex is returned by G2L/L2G/HostOf when a GID or LID is not
// part of this host's local domain (neither owned nor replicated here).
// Per the partitioned-graph invariants, encountering it at runtime indicates
// partition-registry corruption and callers should treat it as fatal.
var ErrUnknownVertex = errors.New("pgraph: unknown vertex")

// Edge is a directed, weighted edge stored under its source's LID. Dst is
// always a local LID — either an owned vertex or a ghost replica — because
// the input graph is the transpose and destinations outside the local
// [0, NumNodes) range are dropped at load time.
type Edge struct {
	Dst    LID
	Weight int32
}

// Graph is the partitioned local subgraph for one host: the CSR adjacency
// of owned sources, the GID<->LID bijections over the local domain, and the
// per-ghost owner lookup needed to drive ghost-cell synchronization.
//
// A Graph is built once by a loader and is read-only for the remainder of
// the process's life; all of its methods are safe for concurrent use by
// multiple relaxation workers.
type Graph struct {
	g2l map[GID]LID
	l2g []GID

	// ghostOwner maps the GID of every locally stored ghost vertex to the
	// host that owns it. Only ghost GIDs appear here.
	ghostOwner map[GID]uint32

	// adj holds the outgoing edges for each owned LID; adj[lid] is nil for
	// ghost LIDs, which never own edges locally.
	adj [][]Edge

	hostID   uint32
	numOwned int
	numEdges int
	gOffset  uint32
}

// New constructs a Graph from already-resolved partition data. It is the
// single entry point loaders use to hand a finished partition to the
// relaxation engine; callers are responsible for satisfying the partition
// invariants of spec.md §3 (owned LIDs form the prefix, ghost LIDs are
// exactly the destinations of owned edges that cross partition boundaries).
func New(hostID uint32, gOffset uint32, l2g []GID, ghostOwner map[GID]uint32, numOwned int, adj [][]Edge) (*Graph, error) {
	if numOwned < 0 || numOwned > len(l2g) {
		return nil, fmt.Errorf("pgraph: invalid numOwned %d for %d local vertices", numOwned, len(l2g))
	}
	if len(adj) != len(l2g) {
		return nil, fmt.Errorf("pgraph: adjacency length %d does not match %d local vertices", len(adj), len(l2g))
	}

	g2l := make(map[GID]LID, len(l2g))
	for lid, gid := range l2g {
		g2l[gid] = LID(lid)
	}

	numEdges := 0
	for lid := 0; lid < numOwned; lid++ {
		numEdges += len(adj[lid])
	}

	return &Graph{
		g2l:        g2l,
		l2g:        append([]GID(nil), l2g...),
		ghostOwner: ghostOwner,
		adj:        adj,
		hostID:     hostID,
		numOwned:   numOwned,
		numEdges:   numEdges,
		gOffset:    gOffset,
	}, nil
}

// ID returns this host's identifier.
func (g *Graph) ID() uint32 { return g.hostID }

// NumNodes returns the total number of local vertices (owned + ghost).
func (g *Graph) NumNodes() int { return len(g.l2g) }

// NumOwned returns the number of owned vertices, i.e. the size of the
// owned-LID prefix [0, NumOwned).
func (g *Graph) NumOwned() int { return g.numOwned }

// NumEdges returns the number of edges stored for owned sources.
func (g *Graph) NumEdges() int { return g.numEdges }

// GOffset returns the global GID offset of the owned range: for an owned
// LID, GID == GOffset + LID.
func (g *Graph) GOffset() uint32 { return g.gOffset }

// G2L resolves a global vertex identifier to a local index. It fails with
// ErrUnknownVertex if gid is neither owned nor replicated on this host.
func (g *Graph) G2L(gid GID) (LID, error) {
	lid, ok := g.g2l[gid]
	if !ok {
		return 0, fmt.Errorf("%w: gid=%d", ErrUnknownVertex, gid)
	}
	return lid, nil
}

// L2G resolves a local index to its global vertex identifier. It fails with
// ErrUnknownVertex if lid is out of the local [0, NumNodes) domain.
func (g *Graph) L2G(lid LID) (GID, error) {
	if lid < 0 || int(lid) >= len(g.l2g) {
		return 0, fmt.Errorf("%w: lid=%d", ErrUnknownVertex, lid)
	}
	return g.l2g[lid], nil
}

// HostOf returns the host that owns gid. Owned GIDs resolve to this host's
// own ID; ghost GIDs resolve via the replica-owner table populated at load
// time.
func (g *Graph) HostOf(gid GID) (uint32, error) {
	lid, err := g.G2L(gid)
	if err != nil {
		return 0, err
	}
	if int(lid) < g.numOwned {
		return g.hostID, nil
	}
	owner, ok := g.ghostOwner[gid]
	if !ok {
		return 0, fmt.Errorf("%w: gid=%d has no recorded owner", ErrUnknownVertex, gid)
	}
	return owner, nil
}

// Edges returns the outgoing (destination LID, weight) pairs for the owned
// source vertex lid. It fails with ErrUnknownVertex for ghost or
// out-of-range LIDs, since only owned vertices hold outgoing edges locally.
func (g *Graph) Edges(lid LID) ([]Edge, error) {
	if lid < 0 || int(lid) >= g.numOwned {
		return nil, fmt.Errorf("%w: lid=%d is not an owned source", ErrUnknownVertex, lid)
	}
	return g.adj[lid], nil
}

// OwnedRange returns the [start, end) LID range of owned vertices.
func (g *Graph) OwnedRange() (start, end LID) { return 0, LID(g.numOwned) }

// GhostRange returns the [start, end) LID range of ghost (replica)
// vertices.
func (g *Graph) GhostRange() (start, end LID) { return LID(g.numOwned), LID(len(g.l2g)) }

// IsOwned reports whether lid falls in the owned prefix.
func (g *Graph) IsOwned(lid LID) bool { return lid >= 0 && int(lid) < g.numOwned }
