package knowledge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/config"
	"github.com/hyperjump/wavekb/internal/embedding"
	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/persistence"
)

// Bootstrap builds an Engine from cfg: it loads the snapshot file when present,
// otherwise restores the newest archived snapshot, otherwise starts empty.
// withArchive opens the SQLite archive; one-shot CLI commands leave it closed.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger, withArchive bool) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := persistence.Bootstrap(cfg.Storage.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var archive *persistence.Archive
	if withArchive && cfg.Storage.ArchivePath != "" {
		archive, err = persistence.OpenArchive(cfg.Storage.ArchivePath)
		if err != nil {
			return nil, err
		}
		if s.Len() == 0 {
			restored, err := archive.LoadLatest(ctx)
			switch {
			case err == nil:
				s = restored
				logger.Info("restored knowledge from archive", zap.Int("patterns", s.Len()))
			case errors.Is(err, models.ErrNotFound):
			default:
				_ = archive.Close()
				return nil, fmt.Errorf("failed to restore archive: %w", err)
			}
		}
	}

	opts := []Option{
		WithLogger(logger),
		WithSnapshotPath(cfg.Storage.SnapshotPath),
		WithSearchDefaults(cfg.Search.DefaultTopK, cfg.Search.MaxTopK, cfg.Search.DefaultMinResonance),
		WithAbsorbStrength(cfg.Absorb.DefaultStrength),
		WithEmbedder(embedding.NewCachedEmbedder(
			embedding.NewHashEmbedder(cfg.Embedding.Dimensions),
			cfg.Embedding.CacheSize,
		)),
	}
	if archive != nil {
		opts = append(opts, WithArchive(archive, cfg.Storage.ArchiveKeep))
	}
	e, err := New(s, opts...)
	if err != nil {
		if archive != nil {
			_ = archive.Close()
		}
		return nil, err
	}
	logger.Debug("knowledge engine ready",
		zap.String("snapshot_path", cfg.Storage.SnapshotPath),
		zap.Bool("archive", archive != nil),
		zap.Int("patterns", e.Len()),
	)
	return e, nil
}

