// Package verify writes the termination-time distance CSV spec.md §6
// names: one row per owned vertex, global ID then distance, sorted
// ascending by GID, to a file named
// "<personality>_<hostID>_of_<numHosts>_distances.csv" — the same naming
// original_source's inner_main used for its own verification dump.
package verify
