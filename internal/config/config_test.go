package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 15s
storage:
  snapshot_path: "/tmp/kb.json"
  snapshot_interval: 30s
search:
  default_top_k: 5
  default_min_resonance: 0.25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("unexpected server addr: %s", cfg.Server.Addr())
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.SnapshotInterval != 30*time.Second {
		t.Errorf("snapshot_interval = %v", cfg.Storage.SnapshotInterval)
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.DefaultMinResonance != 0.25 {
		t.Errorf("unexpected search config: %+v", cfg.Search)
	}
	if cfg.Search.MaxTopK != 100 {
		t.Errorf("max_top_k should default to 100, got %d", cfg.Search.MaxTopK)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  snapshot_path: "./data/knowledge.json"
  archive_path: "./data/archive.db"
ingest:
  directories: ["./incoming"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "knowledge.json"); cfg.Storage.SnapshotPath != want {
		t.Errorf("snapshot_path = %s, want %s", cfg.Storage.SnapshotPath, want)
	}
	if want := filepath.Join(dir, "data", "archive.db"); cfg.Storage.ArchivePath != want {
		t.Errorf("archive_path = %s, want %s", cfg.Storage.ArchivePath, want)
	}
	if len(cfg.Ingest.Directories) != 1 {
		t.Fatalf("ingest directories: got %d", len(cfg.Ingest.Directories))
	}
	if want := filepath.Join(dir, "incoming"); cfg.Ingest.Directories[0] != want {
		t.Errorf("ingest directory = %s, want %s", cfg.Ingest.Directories[0], want)
	}
}

func TestLoad_emptyArchivePathStaysDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  snapshot_path: /tmp/kb.json\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.ArchivePath != "" {
		t.Errorf("archive_path should stay empty, got %q", cfg.Storage.ArchivePath)
	}
}

func TestLoad_rejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"top_k above max":       "search:\n  default_top_k: 50\n  max_top_k: 20\n",
		"min resonance":         "search:\n  default_min_resonance: 1.5\n",
		"strength out of range": "absorb:\n  default_strength: 2\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultTopK != 10 {
		t.Errorf("default top_k: got %d", cfg.Search.DefaultTopK)
	}
	if cfg.Absorb.DefaultStrength != 0.5 {
		t.Errorf("default strength: got %f", cfg.Absorb.DefaultStrength)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if len(cfg.Ingest.Extensions) != 2 || cfg.Ingest.Extensions[0] != ".json" || cfg.Ingest.Extensions[1] != ".jsonl" {
		t.Errorf("ingest extensions: got %v", cfg.Ingest.Extensions)
	}
	if cfg.Storage.SnapshotInterval != 5*time.Minute {
		t.Errorf("snapshot interval: got %v", cfg.Storage.SnapshotInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_IngestRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Ingest: IngestConfig{Directories: []string{"/tmp/in"}}}
	ApplyDefaults(cfg)
	if cfg.Ingest.Recursive == nil || !*cfg.Ingest.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestIngestConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		i := &IngestConfig{}
		if got := i.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		i := &IngestConfig{Recursive: &f}
		if got := i.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Storage.SnapshotPath = "/tmp/kb.json"
	cfg.Storage.SnapshotInterval = 90 * time.Second
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.SnapshotInterval != 90*time.Second {
		t.Errorf("loaded interval: got %v", loaded.Storage.SnapshotInterval)
	}
}
