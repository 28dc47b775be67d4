// Package integration exercises the engine end to end against real files:
// snapshot, SQLite archive, metadata index and record ingest.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hyperjump/wavekb/internal/config"
	"github.com/hyperjump/wavekb/internal/knowledge"
	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/watcher"
)

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Storage.SnapshotPath = filepath.Join(dir, "data", "knowledge.json")
	cfg.Storage.ArchivePath = filepath.Join(dir, "data", "archive.db")
	cfg.Storage.ArchiveKeep = 2
	cfg.Embedding.Dimensions = 64
	cfg.Embedding.CacheSize = 16
	return cfg
}

func TestIntegration_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	engine, err := knowledge.Bootstrap(ctx, cfg, logger, true)
	require.NoError(t, err)

	for _, req := range []*models.InsertRequest{
		{ID: "cat", Embedding: []float64{0.9, 0.1, 0.4, -0.2, 0.3, 0.05, -0.1, 0.6}, Metadata: models.Metadata{"kind": "animal"}},
		{ID: "dog", Embedding: []float64{0.8, 0.2, 0.35, -0.1, 0.25, 0.1, -0.05, 0.5}, Metadata: models.Metadata{"kind": "animal"}},
		{ID: "car", Embedding: []float64{-0.7, 0.9, -0.3, 0.8, -0.6, 0.2, 0.4, -0.9}, Metadata: models.Metadata{"kind": "vehicle"}},
		{ID: "note", Text: "quaternions compose rotations", Metadata: models.Metadata{"kind": "note"}},
	} {
		_, err := engine.Remember(req)
		require.NoError(t, err)
	}
	absorbed, err := engine.Absorb(&models.AbsorbRequest{TargetID: "cat", SourceIDs: []string{"dog"}, Strength: 0.4})
	require.NoError(t, err)
	require.NoError(t, engine.Save(ctx))
	require.NoError(t, engine.Save(ctx))
	require.NoError(t, engine.Save(ctx))

	stats, err := engine.Stats(ctx, cfg.Storage.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Patterns)
	assert.EqualValues(t, 2, stats.ArchivedCount, "archive is pruned to archive_keep")
	require.NotNil(t, stats.DiskUsageBytes)
	assert.Greater(t, *stats.DiskUsageBytes, int64(0))
	require.NoError(t, engine.Close())

	// Restart from the snapshot file.
	restarted, err := knowledge.Bootstrap(ctx, cfg, logger, true)
	require.NoError(t, err)
	defer restarted.Close()
	cat, err := restarted.Get("cat")
	require.NoError(t, err)
	assert.Equal(t, absorbed.Pattern.Orientation, cat.Orientation)
	assert.Equal(t, []string{"dog"}, cat.AbsorbedIDs)

	resp, err := restarted.SearchEmbedding(ctx, &models.SearchRequest{
		Text:          "quaternions compose rotations",
		TopK:          5,
		MetadataQuery: "note",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "note", resp.Results[0].ID)
	assert.Equal(t, 1.0, resp.Results[0].Resonance)
}

func TestIntegration_RestoresFromArchive(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	ctx := context.Background()

	engine, err := knowledge.Bootstrap(ctx, cfg, nil, true)
	require.NoError(t, err)
	_, err = engine.Remember(&models.InsertRequest{ID: "only", Embedding: []float64{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, engine.Save(ctx))
	require.NoError(t, engine.Close())

	require.NoError(t, os.Remove(cfg.Storage.SnapshotPath))

	restored, err := knowledge.Bootstrap(ctx, cfg, nil, true)
	require.NoError(t, err)
	defer restored.Close()
	assert.Equal(t, 1, restored.Len())
	_, err = restored.Get("only")
	assert.NoError(t, err)
}

func TestIntegration_IngestRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	engine, err := knowledge.Bootstrap(context.Background(), cfg, nil, false)
	require.NoError(t, err)
	defer engine.Close()

	inbox := filepath.Join(dir, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	path := filepath.Join(inbox, "batch.jsonl")
	content := `{"id":"a","embedding":[0.1,0.2,0.3],"metadata":{"source":"batch"}}
{"embedding":[0.3,0.2,0.1]}
not json
{"id":"bad","embedding":[]}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ingester := watcher.NewIngester(engine, zaptest.NewLogger(t))
	res, err := ingester.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, watcher.IngestResult{Inserted: 2, Failed: 2}, res)
	assert.Equal(t, 2, engine.Len())

	again, err := ingester.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)

	resp, err := engine.SearchEmbedding(context.Background(), &models.SearchRequest{
		Embedding:     []float64{0.1, 0.2, 0.3},
		MetadataQuery: "batch",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a", resp.Results[0].ID)

	assert.Equal(t, 2, ingester.RemoveFile(path))
	assert.Equal(t, 0, engine.Len())
}
