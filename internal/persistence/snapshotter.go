package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/store"
)

// Snapshotter saves a store on a fixed interval until its context is cancelled,
// then saves once more.
type Snapshotter struct {
	store       *store.Store
	path        string
	interval    time.Duration
	archive     *Archive
	archiveKeep int
	logger      *zap.Logger

	mu sync.Mutex
}

// SnapshotterOption configures a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) SnapshotterOption {
	return func(s *Snapshotter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchive also appends every save to a, pruning to keep entries (keep <= 0
// disables pruning).
func WithArchive(a *Archive, keep int) SnapshotterOption {
	return func(s *Snapshotter) {
		s.archive = a
		s.archiveKeep = keep
	}
}

// NewSnapshotter returns a Snapshotter writing s to path every interval.
func NewSnapshotter(s *store.Store, path string, interval time.Duration, opts ...SnapshotterOption) *Snapshotter {
	sn := &Snapshotter{
		store:    s,
		path:     path,
		interval: interval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sn)
	}
	return sn
}

// Run blocks until ctx is done. With a non-positive interval it only performs the
// final save.
func (sn *Snapshotter) Run(ctx context.Context) error {
	if sn.interval > 0 {
		ticker := time.NewTicker(sn.interval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				if err := sn.SaveNow(ctx); err != nil {
					sn.logger.Warn("periodic snapshot failed", zap.String("path", sn.path), zap.Error(err))
				}
			}
		}
	} else {
		<-ctx.Done()
	}
	// ctx is already cancelled; the archive write needs a live one.
	return sn.SaveNow(context.Background())
}

// SaveNow writes the snapshot file and, when configured, the archive entry.
// Concurrent calls are serialized.
func (sn *Snapshotter) SaveNow(ctx context.Context) error {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	start := time.Now()
	if sn.path != "" {
		if err := Save(sn.store, sn.path); err != nil {
			return err
		}
	}
	if sn.archive != nil {
		info, err := sn.archive.SaveSnapshot(ctx, sn.store)
		if err != nil {
			return err
		}
		if sn.archiveKeep > 0 {
			pruned, err := sn.archive.Prune(ctx, sn.archiveKeep)
			if err != nil {
				return err
			}
			if pruned > 0 {
				sn.logger.Debug("pruned archived snapshots", zap.Int64("removed", pruned))
			}
		}
		sn.logger.Debug("archived snapshot", zap.Int64("id", info.ID), zap.Int("patterns", info.PatternCount))
	}
	sn.logger.Debug("snapshot saved",
		zap.String("path", sn.path),
		zap.Int("patterns", sn.store.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
