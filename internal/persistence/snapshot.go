// Package persistence saves and restores the pattern store: a versioned JSON
// snapshot file, an optional SQLite archive of past snapshots, and a periodic
// snapshotter for long-running processes.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/store"
)

// FormatVersion is the only snapshot version this build reads or writes.
const FormatVersion = 1

type document struct {
	Version  int                   `json:"version"`
	Patterns []*models.WavePattern `json:"patterns"`
}

// Encode writes patterns as a version 1 snapshot document.
func Encode(w io.Writer, patterns []*models.WavePattern) error {
	if patterns == nil {
		patterns = []*models.WavePattern{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Version: FormatVersion, Patterns: patterns}); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot document. A missing or unknown version is rejected
// with ErrUnsupportedFormat before any pattern is looked at.
func Decode(r io.Reader) ([]*models.WavePattern, error) {
	var head struct {
		Version  int             `json:"version"`
		Patterns json.RawMessage `json:"patterns"`
	}
	if err := json.NewDecoder(r).Decode(&head); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnsupportedFormat, err)
	}
	if head.Version != FormatVersion {
		return nil, fmt.Errorf("%w: snapshot version %d", models.ErrUnsupportedFormat, head.Version)
	}
	var patterns []*models.WavePattern
	if len(head.Patterns) > 0 && string(head.Patterns) != "null" {
		if err := json.Unmarshal(head.Patterns, &patterns); err != nil {
			return nil, fmt.Errorf("failed to decode patterns: %w", err)
		}
	}
	for i, p := range patterns {
		if p == nil {
			return nil, fmt.Errorf("%w: pattern %d is null", models.ErrInvalidArgument, i)
		}
	}
	return patterns, nil
}

// Save writes the store's contents to path. The store's read lock is held for the
// whole encoding so the file reflects one consistent state. The file is written
// to a temporary sibling and renamed into place.
func Save(s *store.Store, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	err = s.View(func(patterns []*models.WavePattern) error {
		return Encode(tmp, patterns)
	})
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

// Load reads the snapshot at path into a new store. Every pattern is validated;
// duplicates or invariant violations fail the whole load.
func Load(path string, opts ...store.Option) (*store.Store, error) {
	patterns, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s := store.New(opts...)
	if err := s.Replace(patterns); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

// LoadInto replaces the contents of s with the snapshot at path. s is left
// untouched when the snapshot cannot be read or validated.
func LoadInto(s *store.Store, path string) error {
	patterns, err := readFile(path)
	if err != nil {
		return err
	}
	if err := s.Replace(patterns); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return nil
}

func readFile(path string) ([]*models.WavePattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: snapshot %s", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
