// Package backend abstracts one round of SSSP relaxation over a marshaled
// partition, so the driver can run against the CPU kernel in internal/relax
// or, in principle, a GPU kernel without changing its round logic.
//
// Only the CPU backend actually computes anything; the CUDA and OpenCL
// personalities are stand-ins that accept a marshaled graph and report
// themselves unavailable when asked to run, the same way
// original_source/exp/apps/hsssp/HSSSP_push.cpp dispatched on a
// --pset-selected Personality without every personality being buildable on
// every machine.
package backend
