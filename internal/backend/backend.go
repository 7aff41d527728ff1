package backend

import (
	"context"
	"errors"

	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/relax"
)

// ErrBackendUnavailable is returned by a non-CPU backend's Relax/Commit: the
// personality was selected via --pset, but no GPU kernel is wired behind it.
var ErrBackendUnavailable = errors.New("backend: accelerator backend unavailable in this build")

// Backend is the contract one host's compute personality must honor each
// BSP round: read/write a vertex's distance by local index, run one
// relaxation pass over owned sources, and commit the double buffer.
// Mirrors original_source's CPU/GPU_CUDA/GPU_OPENCL personality switch,
// but as a Go interface instead of a runtime enum dispatch.
type Backend interface {
	// Distance returns the current committed distance for lid.
	Distance(lid pgraph.LID) int32
	// SetDistance forces both buffer slots of lid to v. Used once, to seed
	// the source vertex before round 0.
	SetDistance(lid pgraph.LID, v int32)
	// MinDistance lowers lid's current distance to v if v is smaller,
	// reporting whether anything changed. Ghost-cell receives use this.
	MinDistance(lid pgraph.LID, v int32) bool
	// Relax runs one relaxation pass over owned sources, reporting whether
	// it lowered any distance.
	Relax(ctx context.Context) (changed bool, err error)
	// Commit normalizes and swaps every local vertex's double buffer.
	Commit(ctx context.Context) error
}

// CPU is the real backend: relaxation and commit delegate to
// internal/relax over a nodestate.Store.
type CPU struct {
	state     *nodestate.Store
	kernel    *relax.Kernel
	committer *relax.Committer
}

// NewCPU allocates a fresh node-state store sized for graph and builds a
// CPU backend over it.
func NewCPU(graph *pgraph.Graph, config relax.Config) *CPU {
	return NewCPUWithState(graph, nodestate.NewStore(graph.NumNodes()), config)
}

// NewCPUWithState builds a CPU backend over an already-allocated store,
// for callers (the driver, tests) that need to inspect or seed state
// directly alongside the backend.
func NewCPUWithState(graph *pgraph.Graph, state *nodestate.Store, config relax.Config) *CPU {
	return &CPU{
		state:     state,
		kernel:    relax.NewKernel(graph, state, config),
		committer: relax.NewCommitter(graph, state, config),
	}
}

func (c *CPU) Distance(lid pgraph.LID) int32 { return c.state.Distance(lid) }

func (c *CPU) SetDistance(lid pgraph.LID, v int32) {
	c.state.SetCurrent(nodestate.DistField, lid, v)
	c.state.SetNext(nodestate.DistField, lid, v)
}

func (c *CPU) MinDistance(lid pgraph.LID, v int32) bool { return c.state.MinDistance(lid, v) }

func (c *CPU) Relax(ctx context.Context) (bool, error) { return c.kernel.Run(ctx) }

func (c *CPU) Commit(ctx context.Context) error { return c.committer.Run(ctx) }

// Store exposes the underlying node state, for verification output that
// wants to range over owned vertices directly.
func (c *CPU) Store() *nodestate.Store { return c.state }

// stub is the shared shape of CUDAStub/OpenCLStub: they hold a host-side
// shadow of the marshaled distances (so Distance/SetDistance remain
// meaningful for seeding and inspection) but refuse to compute.
type stub struct {
	name string
	dist []int32
}

func newStub(name string, m *MarshalGraph) *stub {
	dist := make([]int32, m.NumNodes)
	for i := range dist {
		dist[i] = nodestate.Sentinel
	}
	return &stub{name: name, dist: dist}
}

func (s *stub) Distance(lid pgraph.LID) int32 { return s.dist[lid] }

func (s *stub) SetDistance(lid pgraph.LID, v int32) { s.dist[lid] = v }

func (s *stub) MinDistance(lid pgraph.LID, v int32) bool {
	if v >= s.dist[lid] {
		return false
	}
	s.dist[lid] = v
	return true
}

func (s *stub) Relax(ctx context.Context) (bool, error) {
	return false, ErrBackendUnavailable
}

func (s *stub) Commit(ctx context.Context) error {
	return ErrBackendUnavailable
}

// CUDAStub stands in for the GPU/CUDA personality: it satisfies Backend so
// --pset's 'g' assignment is a meaningful, testable choice, but it has no
// CUDA kernel behind it.
type CUDAStub struct{ *stub }

// NewCUDAStub builds a CUDAStub initialized from a marshaled partition.
func NewCUDAStub(m *MarshalGraph) *CUDAStub { return &CUDAStub{newStub("gpu/cuda", m)} }

// OpenCLStub stands in for the GPU/OpenCL personality ('o' in --pset).
type OpenCLStub struct{ *stub }

// NewOpenCLStub builds an OpenCLStub initialized from a marshaled partition.
func NewOpenCLStub(m *MarshalGraph) *OpenCLStub { return &OpenCLStub{newStub("gpu/opencl", m)} }
