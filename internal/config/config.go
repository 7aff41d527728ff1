package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// TransportKind selects which transport.Transport implementation
// cmd/sssp-host wires up.
type TransportKind string

const (
	TransportHTTP TransportKind = "http"
	TransportLoop TransportKind = "loop"
)

// Personality is one host's --pset-selected compute back-end, mirroring
// original_source's CPU/GPU_CUDA/GPU_OPENCL enum.
type Personality byte

const (
	PersonalityCPU    Personality = 'c'
	PersonalityCUDA   Personality = 'g'
	PersonalityOpenCL Personality = 'o'
)

// HostConfig is the fully parsed command line for one host process.
type HostConfig struct {
	ShardPath     string
	MaxIterations int
	SrcNodeID     uint32
	Verify        bool
	PSet          string

	HostID    uint32
	Hosts     map[uint32]string // hostID -> addr, from --hosts
	Transport TransportKind
	LogLevel  string
}

// PersonalityFor resolves this config's --pset string to a Personality for
// hostID, defaulting to CPU when pset is empty or hostID falls outside it
// (an under-length pset leaves the remaining hosts on CPU rather than
// failing the run).
func (c HostConfig) PersonalityFor(hostID uint32) (Personality, error) {
	if c.PSet == "" {
		return PersonalityCPU, nil
	}
	if int(hostID) >= len(c.PSet) {
		return PersonalityCPU, nil
	}
	switch b := c.PSet[hostID]; b {
	case 'c':
		return PersonalityCPU, nil
	case 'g':
		return PersonalityCUDA, nil
	case 'o':
		return PersonalityOpenCL, nil
	default:
		return 0, fmt.Errorf("config: invalid --pset character %q at index %d (want one of c,g,o)", b, hostID)
	}
}

// parsePeers parses --hosts of the form "0=host:port,1=host:port,...".
func parsePeers(raw string) (map[uint32]string, error) {
	peers := make(map[uint32]string)
	if strings.TrimSpace(raw) == "" {
		return peers, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idStr, addr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("config: --hosts entry %q is not of the form id=addr", entry)
		}
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("config: --hosts entry %q has a non-numeric id: %w", entry, err)
		}
		if addr == "" {
			return nil, fmt.Errorf("config: --hosts entry %q is missing an address", entry)
		}
		peers[uint32(id)] = addr
	}
	return peers, nil
}

// OrderedPeerIDs returns Hosts' keys sorted ascending, for callers that
// need a deterministic iteration order (broadcast fan-out, logging).
func (c HostConfig) OrderedPeerIDs() []uint32 {
	ids := make([]uint32, 0, len(c.Hosts))
	for id := range c.Hosts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PeerSlice materializes Hosts as a []string indexed by host ID, the
// shape transport.NewHTTPTransport expects. It fails if any ID in
// [0, len(Hosts)) was not supplied by --hosts.
func (c HostConfig) PeerSlice() ([]string, error) {
	n := len(c.Hosts)
	peers := make([]string, n)
	for id := 0; id < n; id++ {
		addr, ok := c.Hosts[uint32(id)]
		if !ok {
			return nil, fmt.Errorf("config: --hosts is missing an entry for host %d (have %d hosts)", id, n)
		}
		peers[id] = addr
	}
	return peers, nil
}

// NewRootCommand builds the cmd/sssp-host cobra command. run is invoked
// with the fully parsed HostConfig once flags and the positional shard
// path are validated; NewRootCommand itself performs no I/O.
func NewRootCommand(run func(HostConfig) error) *cobra.Command {
	var (
		maxIterations int
		srcNodeID     uint32
		verify        bool
		pset          string
		hostID        uint32
		hostsFlag     string
		transportFlag string
		logLevel      string
	)

	cmd := &cobra.Command{
		Use:   "sssp-host <shard-path>",
		Short: "Run one host's partition of a distributed BSP SSSP computation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := parsePeers(hostsFlag)
			if err != nil {
				return err
			}
			transport := TransportKind(transportFlag)
			if transport != TransportHTTP && transport != TransportLoop {
				return fmt.Errorf("config: --transport must be %q or %q, got %q", TransportHTTP, TransportLoop, transportFlag)
			}
			cfg := HostConfig{
				ShardPath:     args[0],
				MaxIterations: maxIterations,
				SrcNodeID:     srcNodeID,
				Verify:        verify,
				PSet:          pset,
				HostID:        hostID,
				Hosts:         hosts,
				Transport:     transport,
				LogLevel:      logLevel,
			}
			return run(cfg)
		},
	}

	cmd.Flags().IntVar(&maxIterations, "maxIterations", 4, "round cap before the driver gives up on convergence")
	cmd.Flags().Uint32Var(&srcNodeID, "srcNodeId", 0, "global ID of the source vertex")
	cmd.Flags().BoolVar(&verify, "verify", false, "write <personality>_<hostID>_of_<N>_distances.csv on termination")
	cmd.Flags().StringVar(&pset, "pset", "", "per-host personality string, alphabet c/g/o, one char per host")
	cmd.Flags().Uint32Var(&hostID, "host-id", 0, "this process's host ID")
	cmd.Flags().StringVar(&hostsFlag, "hosts", "", "comma-separated id=addr peer list (required for --transport=http)")
	cmd.Flags().StringVar(&transportFlag, "transport", string(TransportHTTP), "transport: http or loop")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")

	return cmd
}
