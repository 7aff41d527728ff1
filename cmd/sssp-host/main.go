// Command sssp-host runs one host's partition of a distributed
// bulk-synchronous SSSP computation, wiring together shard loading,
// transport, compute back-end selection and the superstep driver.
//
// Usage:
//
//	sssp-host --host-id=0 --hosts=0=127.0.0.1:7000,1=127.0.0.1:7001 \
//	    --srcNodeId=0 --maxIterations=20 --verify shard0.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dreamware/distsssp/internal/backend"
	"github.com/dreamware/distsssp/internal/config"
	"github.com/dreamware/distsssp/internal/driver"
	"github.com/dreamware/distsssp/internal/loader"
	"github.com/dreamware/distsssp/internal/logging"
	"github.com/dreamware/distsssp/internal/nodestate"
	"github.com/dreamware/distsssp/internal/pgraph"
	"github.com/dreamware/distsssp/internal/relax"
	"github.com/dreamware/distsssp/internal/transport"
	"github.com/dreamware/distsssp/internal/verify"
)

func main() {
	cmd := config.NewRootCommand(run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.HostConfig) error {
	log := logging.New(cfg.LogLevel, cfg.HostID, os.Stderr)

	graph, err := loader.LoadShard(cfg.ShardPath)
	if err != nil {
		return fmt.Errorf("sssp-host: %w", err)
	}

	tr, err := newTransport(cfg, log)
	if err != nil {
		return fmt.Errorf("sssp-host: %w", err)
	}
	defer tr.Close()

	personality, err := cfg.PersonalityFor(cfg.HostID)
	if err != nil {
		return fmt.Errorf("sssp-host: %w", err)
	}
	state := nodestate.NewStore(graph.NumNodes())
	be, err := newBackend(personality, graph, state)
	if err != nil {
		return fmt.Errorf("sssp-host: %w", err)
	}

	drv := driver.New(graph, state, tr, driver.Config{
		MaxIterations: cfg.MaxIterations,
		Src:           pgraph.GID(cfg.SrcNodeID),
		Backend:       be,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := drv.Run(ctx)
	if err != nil {
		return fmt.Errorf("sssp-host: run: %w", err)
	}
	log.Info().Int("iterations", result.Iterations).Bool("converged", result.Converged).
		Msg("superstep loop finished")

	if cfg.Verify {
		path, err := verify.Write(".", graph, be, personalityLabel(personality), cfg.HostID, tr.NumHosts())
		if err != nil {
			return fmt.Errorf("sssp-host: verify: %w", err)
		}
		log.Info().Str("path", path).Msg("wrote verification distances")
	}
	return nil
}

// newTransport builds the Transport cfg.Transport selects. Loop transport
// only makes sense for a single process simulating every host, since
// NewLoopGroup's registries all live in one address space; it exists
// mainly for local smoke-testing a run without standing up real listeners.
func newTransport(cfg config.HostConfig, log zerolog.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportLoop:
		group := transport.NewLoopGroup(uint32(len(cfg.Hosts)))
		if int(cfg.HostID) >= len(group) {
			return nil, fmt.Errorf("host-id %d has no entry in --hosts", cfg.HostID)
		}
		return group[cfg.HostID], nil
	case config.TransportHTTP:
		peers, err := cfg.PeerSlice()
		if err != nil {
			return nil, err
		}
		if int(cfg.HostID) >= len(peers) {
			return nil, fmt.Errorf("host-id %d has no entry in --hosts", cfg.HostID)
		}
		urls := make([]string, len(peers))
		for i, addr := range peers {
			urls[i] = "http://" + addr
		}
		return transport.NewHTTPTransport(cfg.HostID, peers[cfg.HostID], urls, log)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// newBackend builds the compute back-end for personality. The CUDA and
// OpenCL personalities report backend.ErrBackendUnavailable from Relax and
// Commit the first time the driver calls them, rather than failing host
// startup, so a --pset misconfiguration surfaces with the same diagnostics
// as any other round failure.
func newBackend(p config.Personality, graph *pgraph.Graph, state *nodestate.Store) (backend.Backend, error) {
	switch p {
	case config.PersonalityCPU:
		return backend.NewCPUWithState(graph, state, relax.Config{}), nil
	case config.PersonalityCUDA:
		return backend.NewCUDAStub(backend.Marshal(graph)), nil
	case config.PersonalityOpenCL:
		return backend.NewOpenCLStub(backend.Marshal(graph)), nil
	default:
		return nil, fmt.Errorf("unsupported personality %q", p)
	}
}

func personalityLabel(p config.Personality) string {
	switch p {
	case config.PersonalityCPU:
		return "cpu"
	case config.PersonalityCUDA:
		return "gpu-cuda"
	case config.PersonalityOpenCL:
		return "gpu-opencl"
	default:
		return "unknown"
	}
}
