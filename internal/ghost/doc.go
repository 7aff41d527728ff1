// Package ghost implements the ghost-cell synchronizer (spec.md §4.5):
// bootstrap registration of replica ownership, the per-round send of an
// owner's committed distances to every host holding a replica and of each
// replica's distance back to its owner, and the receive-side min-write into
// the receiving vertex's current slot. Every handler in
// this package is registered on a transport.Transport and is therefore
// single-threaded per host by that transport's dispatch guarantee.
package ghost
