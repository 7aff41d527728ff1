// Package nodestate implements the double-buffered per-vertex fields used by
// the BSP relaxation engine: two value slots selected by a version bit, so
// that a round's compute phase can read a stable "current" value while
// concurrently writing tentative "next" values under CAS.
//
// The representation generalizes to more than one double-buffered field per
// vertex (spec.md §9: "the representation accommodates multiple
// double-buffered fields (e.g., distance + auxiliary worklist)"), even
// though this engine only exercises the distance field.
package nodestate
