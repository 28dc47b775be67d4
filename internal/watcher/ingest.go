package watcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/wavekb/internal/fileid"
	"github.com/hyperjump/wavekb/internal/models"
)

// maxLine bounds a single JSON Lines record.
const maxLine = 16 << 20

// Sink stores ingested records.
type Sink interface {
	Remember(req *models.InsertRequest) (*models.WavePattern, error)
	Delete(id string) error
}

// Record is one embedding read from an ingest file.
type Record struct {
	ID        string          `json:"id,omitempty"`
	Embedding []float64       `json:"embedding"`
	Metadata  models.Metadata `json:"metadata,omitempty"`
}

// IngestResult counts what happened to the records of one file.
type IngestResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Ingester converts record files into patterns and remembers which ids each
// file contributed so they can be removed with the file. Records whose id
// already exists are skipped, never overwritten.
type Ingester struct {
	sink   Sink
	logger *zap.Logger

	mu     sync.Mutex
	byPath map[string][]string
}

// NewIngester returns an Ingester writing to sink.
func NewIngester(sink Sink, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{sink: sink, logger: logger, byPath: make(map[string][]string)}
}

// FileChanged ingests path. It implements Handler.
func (in *Ingester) FileChanged(path string) {
	res, err := in.IngestFile(path)
	if err != nil {
		in.logger.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	in.logger.Info("ingested file",
		zap.String("path", path),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
}

// FileRemoved deletes the patterns path contributed. It implements Handler.
func (in *Ingester) FileRemoved(path string) {
	n := in.RemoveFile(path)
	if n > 0 {
		in.logger.Info("removed patterns for deleted file", zap.String("path", path), zap.Int("removed", n))
	}
}

// IngestFile reads every record in path and inserts it. Bad records are counted
// as failed and do not stop the rest of the file.
func (in *Ingester) IngestFile(path string) (IngestResult, error) {
	records, decodeFailures, err := ReadRecords(path)
	if err != nil {
		return IngestResult{}, err
	}
	res := IngestResult{Failed: decodeFailures}

	in.mu.Lock()
	defer in.mu.Unlock()
	owned := make(map[string]struct{}, len(in.byPath[path]))
	for _, id := range in.byPath[path] {
		owned[id] = struct{}{}
	}

	for n, rec := range records {
		if rec == nil {
			continue
		}
		id := rec.ID
		if id == "" {
			id = fileid.PatternID(path, n)
		}
		_, err := in.sink.Remember(&models.InsertRequest{ID: id, Embedding: rec.Embedding, Metadata: rec.Metadata})
		switch {
		case err == nil:
			res.Inserted++
			if _, ok := owned[id]; !ok {
				owned[id] = struct{}{}
				in.byPath[path] = append(in.byPath[path], id)
			}
		case errors.Is(err, models.ErrDuplicateID):
			res.Skipped++
		default:
			res.Failed++
			in.logger.Debug("record rejected", zap.String("path", path), zap.Int("record", n), zap.String("kind", models.ErrorKind(err)), zap.Error(err))
		}
	}
	return res, nil
}

// RemoveFile deletes the patterns ingested from path and returns how many
// were deleted. Ids that are already gone are ignored.
func (in *Ingester) RemoveFile(path string) int {
	in.mu.Lock()
	ids := in.byPath[path]
	delete(in.byPath, path)
	in.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if err := in.sink.Delete(id); err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				in.logger.Warn("failed to delete ingested pattern", zap.String("id", id), zap.Error(err))
			}
			continue
		}
		removed++
	}
	return removed
}

// Owned returns the ids currently attributed to path.
func (in *Ingester) Owned(path string) []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.byPath[path]...)
}

// ReadRecords parses path by extension: ".jsonl" holds one record per line;
// anything else holds a single record or an array of records. Undecodable
// JSON Lines entries leave a nil slot, so record positions stay stable, and are
// counted in the second return value.
func ReadRecords(path string) ([]*Record, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return readLines(data)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, nil
	}
	if trimmed[0] == '[' {
		var recs []*Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %v", models.ErrInvalidArgument, path, err)
		}
		return recs, 0, nil
	}
	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", models.ErrInvalidArgument, path, err)
	}
	return []*Record{&rec}, 0, nil
}

func readLines(data []byte) ([]*Record, int, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var (
		recs   []*Record
		failed int
	)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			recs = append(recs, nil)
			failed++
			continue
		}
		recs = append(recs, &rec)
	}
	return recs, failed, sc.Err()
}
