package knowledge

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/persistence"
)

// Stats summarizes the knowledge base.
type Stats struct {
	Patterns        int     `json:"patterns"`
	TotalEnergy     float64 `json:"total_energy"`
	MaxDepth        int     `json:"max_expansion_depth"`
	AbsorbedEdges   int     `json:"absorbed_edges"`
	MetadataIndexed uint64  `json:"metadata_indexed"`
	SnapshotPath    string  `json:"snapshot_path,omitempty"`
	ArchivedCount   int64   `json:"archived_snapshots"`
	DiskUsageBytes  *int64  `json:"disk_usage_bytes,omitempty"`
}

// Stats computes aggregate figures over one consistent view of the store.
// archivePath is only used to measure disk usage and may be empty.
func (e *Engine) Stats(ctx context.Context, archivePath string) (*Stats, error) {
	st := &Stats{SnapshotPath: e.snapshotPath}
	err := e.store.View(func(patterns []*models.WavePattern) error {
		st.Patterns = len(patterns)
		for _, p := range patterns {
			st.TotalEnergy += p.Energy
			st.AbsorbedEdges += len(p.AbsorbedIDs)
			if p.ExpansionDepth > st.MaxDepth {
				st.MaxDepth = p.ExpansionDepth
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n, err := e.meta.Len(); err == nil {
		st.MetadataIndexed = n
	}
	if e.archive != nil {
		n, err := e.archive.Count(ctx)
		if err != nil {
			return nil, e.fail("stats", err)
		}
		st.ArchivedCount = n
	}
	if bytes, err := persistence.DiskUsageBytes(e.snapshotPath, archivePath); err == nil {
		st.DiskUsageBytes = &bytes
	} else {
		e.logger.Debug("disk usage unavailable", zap.Error(err))
	}
	return st, nil
}
