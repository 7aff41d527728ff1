// Package transport is the message-transport abstraction the BSP driver and
// the ghost-cell synchronizer consume: point-to-point send, broadcast, and a
// global barrier, with the ordering guarantees spec.md §4.7 and §5 require
// (FIFO per (source,dest) pair, single-threaded handler invocation per
// host, exactly-once broadcast delivery).
//
// Two implementations are provided: HTTPTransport for real multi-process
// deployments, and LoopTransport for single-process tests and single-host
// runs. The core (ghost, driver) depends only on the Transport interface in
// this file.
package transport
