// Package relax implements the per-round compute and commit phases of the
// BSP relaxation engine: a parallel CAS-based push relaxation over owned
// vertices (spec.md §4.3), and a parallel commit phase that collapses the
// double-buffered distance to its new value and flips the version bit
// (spec.md §4.4). Both phases split their LID range into contiguous
// chunks and run one goroutine per chunk under errgroup.WithContext; the
// number of chunks is Config.Workers, defaulting to the host's CPU count.
package relax
