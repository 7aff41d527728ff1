// Package loader reads one host's pre-partitioned transpose shard off disk
// and builds a pgraph.Graph satisfying the partition invariants of
// spec.md §3: owned LIDs occupy the contiguous prefix, ghost LIDs the
// contiguous suffix, and every stored edge targets a local LID.
//
// The on-disk format is line-oriented and self-describing, in the spirit
// of original_source's MarshalGraph field order (row_start, edge_dst, then
// partition counts) but readable without a binary unmarshaler.
package loader
