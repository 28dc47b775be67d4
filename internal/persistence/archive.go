package persistence

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/store"
)

// SnapshotInfo describes one archived snapshot.
type SnapshotInfo struct {
	ID           int64     `json:"id"`
	Version      int       `json:"version"`
	PatternCount int       `json:"pattern_count"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Archive keeps a history of snapshots in a SQLite database. Payloads use the
// same JSON document as snapshot files.
type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// OpenArchive opens or creates the archive database at dbPath. Parent
// directories are created if they do not exist.
func OpenArchive(dbPath string) (*Archive, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initArchiveSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return &Archive{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func initArchiveSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		pattern_count INTEGER NOT NULL,
		payload BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSnapshot encodes the store under its read lock and appends it to the archive.
func (a *Archive) SaveSnapshot(ctx context.Context, s *store.Store) (*SnapshotInfo, error) {
	var (
		buf   bytes.Buffer
		count int
	)
	err := s.View(func(patterns []*models.WavePattern) error {
		count = len(patterns)
		return Encode(&buf, patterns)
	})
	if err != nil {
		return nil, err
	}

	info := &SnapshotInfo{
		Version:      FormatVersion,
		PatternCount: count,
		SizeBytes:    int64(buf.Len()),
		CreatedAt:    a.now(),
	}
	res, err := a.db.ExecContext(ctx,
		`INSERT INTO snapshots (version, pattern_count, payload, created_at)
		 VALUES (?, ?, ?, ?)`,
		info.Version, info.PatternCount, buf.Bytes(), info.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive snapshot: %w", err)
	}
	if info.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return info, nil
}

// LoadLatest restores the most recent archived snapshot into a new store.
func (a *Archive) LoadLatest(ctx context.Context, opts ...store.Option) (*store.Store, error) {
	var payload []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: archive is empty", models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return restore(payload, opts...)
}

// Load restores the archived snapshot with the given id into a new store.
func (a *Archive) Load(ctx context.Context, id int64, opts ...store.Option) (*store.Store, error) {
	var payload []byte
	err := a.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: archived snapshot %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return restore(payload, opts...)
}

func restore(payload []byte, opts ...store.Option) (*store.Store, error) {
	patterns, err := Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	s := store.New(opts...)
	if err := s.Replace(patterns); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns archived snapshots, newest first.
func (a *Archive) List(ctx context.Context) ([]*SnapshotInfo, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, version, pattern_count, length(payload), created_at
		 FROM snapshots ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Version, &info.PatternCount, &info.SizeBytes, &info.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &info)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
// keep <= 0 keeps everything.
func (a *Archive) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := a.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune archive: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of archived snapshots.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
