// Package driver implements the BSP round orchestrator (spec.md §4.6): the
// exchange -> barrier -> compute -> commit -> vote -> barrier ->
// terminate-or-loop superstep sequence, bounded by --maxIterations, with a
// diagnostic logged when the iteration cap is hit before convergence.
//
// The run loop follows the ticker/context shape torua's HealthMonitor uses
// for its own supervised loop, adapted here to a fixed round count driven
// by barriers instead of a timer.
package driver
