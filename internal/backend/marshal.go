package backend

import "github.com/dreamware/distsssp/internal/pgraph"

// MarshalGraph is the wire/init format a Backend consumes, mirroring
// original_source's MarshalGraph struct field-for-field: a contiguous
// row-start index array, a flat destination array, and partition metadata.
// Edge weights are marshaled alongside destinations since, unlike the
// original's page-rank-oriented MarshalGraph, this engine's relaxation
// needs them to compute tentative distances.
type MarshalGraph struct {
	NumNodes int
	NumEdges int
	NumOwned int
	GOffset  uint32
	HostID   uint32

	RowStart []int32 // length NumNodes+1
	EdgeDst  []int32 // length NumEdges
	EdgeWt   []int32 // length NumEdges
}

// Marshal builds the MarshalGraph for graph, dropping any destination
// outside the local [0, NumNodes) range at marshal time, per spec.md §6.
// graph's own invariants already guarantee every stored edge targets a
// local LID, so in practice nothing is ever dropped here; the check exists
// because Marshal is the one place spec.md names the guarantee explicitly.
func Marshal(graph *pgraph.Graph) *MarshalGraph {
	numNodes := graph.NumNodes()
	numOwned := graph.NumOwned()

	m := &MarshalGraph{
		NumNodes: numNodes,
		NumOwned: numOwned,
		GOffset:  graph.GOffset(),
		HostID:   graph.ID(),
		RowStart: make([]int32, numNodes+1),
	}

	var dst, wt []int32
	offset := int32(0)
	for lid := 0; lid < numNodes; lid++ {
		m.RowStart[lid] = offset
		if lid >= numOwned {
			continue
		}
		edges, err := graph.Edges(pgraph.LID(lid))
		if err != nil {
			continue
		}
		for _, e := range edges {
			if int(e.Dst) < 0 || int(e.Dst) >= numNodes {
				continue
			}
			dst = append(dst, int32(e.Dst))
			wt = append(wt, e.Weight)
			offset++
		}
	}
	m.RowStart[numNodes] = offset
	m.EdgeDst = dst
	m.EdgeWt = wt
	m.NumEdges = len(dst)
	return m
}
