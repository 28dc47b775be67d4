package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wavekb/internal/fileid"
	"github.com/hyperjump/wavekb/internal/models"
)

type memorySink struct {
	mu   sync.Mutex
	data map[string]*models.InsertRequest
}

func newMemorySink() *memorySink {
	return &memorySink{data: make(map[string]*models.InsertRequest)}
}

func (m *memorySink) Remember(req *models.InsertRequest) (*models.WavePattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(req.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty", models.ErrInvalidEmbedding)
	}
	if _, ok := m.data[req.ID]; ok {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateID, req.ID)
	}
	m.data[req.ID] = req
	return &models.WavePattern{ID: req.ID}, nil
}

func (m *memorySink) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(m.data, id)
	return nil
}

func (m *memorySink) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

func TestIngester_JSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.jsonl")
	body := `{"id":"cat","embedding":[0.1,0.2],"metadata":{"label":"cat"}}
{"embedding":[0.3,0.4]}

not json
{"embedding":[]}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	sink := newMemorySink()
	in := NewIngester(sink, nil)
	res, err := in.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, IngestResult{Inserted: 2, Failed: 2}, res)

	assert.True(t, sink.has("cat"))
	assert.True(t, sink.has(fileid.PatternID(path, 1)))
	assert.Equal(t, "cat", sink.data["cat"].Metadata["label"])

	res, err = in.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped, "existing ids are skipped")
	assert.Len(t, in.Owned(path), 2)

	assert.Equal(t, 2, in.RemoveFile(path))
	assert.False(t, sink.has("cat"))
	assert.Empty(t, in.Owned(path))
}

func TestIngester_JSONArrayAndSingle(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "many.json")
	one := filepath.Join(dir, "one.json")
	require.NoError(t, os.WriteFile(arr, []byte(`[{"embedding":[1,0]},{"id":"x","embedding":[0,1]}]`), 0644))
	require.NoError(t, os.WriteFile(one, []byte(`{"id":"solo","embedding":[1,1,1]}`), 0644))

	sink := newMemorySink()
	in := NewIngester(sink, nil)
	in.FileChanged(arr)
	in.FileChanged(one)

	assert.True(t, sink.has(fileid.PatternID(arr, 0)))
	assert.True(t, sink.has("x"))
	assert.True(t, sink.has("solo"))

	in.FileRemoved(one)
	assert.False(t, sink.has("solo"))
	assert.True(t, sink.has("x"))
}

func TestIngester_SkippedIdsAreNotOwned(t *testing.T) {
	dir := t.TempDir()
	sink := newMemorySink()
	_, err := sink.Remember(&models.InsertRequest{ID: "shared", Embedding: []float64{1}})
	require.NoError(t, err)

	path := filepath.Join(dir, "r.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"shared","embedding":[2]}`), 0644))
	in := NewIngester(sink, nil)
	res, err := in.IngestFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	assert.Equal(t, 0, in.RemoveFile(path))
	assert.True(t, sink.has("shared"), "pattern inserted elsewhere survives the file's removal")
}

func TestReadRecords_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"embedding":`), 0644))
	_, _, err := ReadRecords(bad)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, _, err = ReadRecords(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	recs, failed, err := ReadRecords(empty)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, failed)
}

func TestReadRecords_RejectsNestedMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"embedding":[1],"metadata":{"a":{"b":1}}}`+"\n"), 0644))
	recs, failed, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []*Record{nil}, recs)
}
