// Package pgraph holds the local CSR subgraph for one host of a partitioned
// graph, together with the GID/LID bijections and the replica-ownership
// table a distributed relaxation engine needs.
//
// A PGraph never talks to the network or to other hosts; it is pure local
// bookkeeping. Ownership and replication are established once at load time
// by an external loader (see internal/loader) and never change afterward —
// this package has no notion of dynamic repartitioning.
package pgraph
