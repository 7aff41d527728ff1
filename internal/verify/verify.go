package verify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dreamware/distsssp/internal/pgraph"
)

// Distancer is the read-only surface Write needs: both backend.Backend and
// *nodestate.Store satisfy it.
type Distancer interface {
	Distance(lid pgraph.LID) int32
}

// FileName builds the "<personality>_<hostID>_of_<numHosts>_distances.csv"
// name spec.md §6 specifies.
func FileName(personality string, hostID, numHosts uint32) string {
	return fmt.Sprintf("%s_%d_of_%d_distances.csv", personality, hostID, numHosts)
}

// Write dumps every owned vertex's committed distance to dir/filename,
// one "gid,distance" row per vertex, sorted ascending by GID. This is
// spec.md §9's resolved Open Question: a single distance column per owned
// vertex, not the original's duplicated current/next pair.
func Write(dir string, graph *pgraph.Graph, dist Distancer, personality string, hostID, numHosts uint32) (string, error) {
	type row struct {
		gid  pgraph.GID
		dist int32
	}

	start, end := graph.OwnedRange()
	rows := make([]row, 0, int(end-start))
	for lid := start; lid < end; lid++ {
		gid, err := graph.L2G(lid)
		if err != nil {
			return "", fmt.Errorf("verify: resolve gid for owned lid %d: %w", lid, err)
		}
		rows = append(rows, row{gid: gid, dist: dist.Distance(lid)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].gid < rows[j].gid })

	path := filepath.Join(dir, FileName(personality, hostID, numHosts))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("verify: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range rows {
		if err := w.Write([]string{strconv.FormatUint(uint64(r.gid), 10), strconv.FormatInt(int64(r.dist), 10)}); err != nil {
			return "", fmt.Errorf("verify: write row for gid %d: %w", r.gid, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("verify: flush %s: %w", path, err)
	}
	return path, nil
}
