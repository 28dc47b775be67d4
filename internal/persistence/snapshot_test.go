package persistence

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wavekb/internal/absorb"
	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/store"
	"github.com/hyperjump/wavekb/internal/wave"
)

func populated(t *testing.T) *store.Store {
	t.Helper()
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := store.New(store.WithClock(func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}))
	c := wave.NewConverter()
	inputs := []struct {
		id   string
		emb  []float64
		meta models.Metadata
	}{
		{"alpha", []float64{0.1, -0.4, 0.9, 0.3, -0.2}, models.Metadata{"topic": "animals", "rank": 1.0}},
		{"beta", []float64{0.7, 0.7, -0.1, 0.0, 0.5}, models.Metadata{"topic": "vehicles", "fresh": true}},
		{"gamma", []float64{0, 0, 0, 0}, models.Metadata{"note": nil}},
	}
	for _, in := range inputs {
		p, err := c.ConvertWithID(in.id, in.emb, in.meta)
		require.NoError(t, err)
		require.NoError(t, s.Insert(p))
	}
	_, err := absorb.NewEngine().Absorb(s, "alpha", []string{"beta", "beta"}, 0.4)
	require.NoError(t, err)
	return s
}

func assertSameStore(t *testing.T, want, got *store.Store) {
	t.Helper()
	require.Equal(t, want.IDs(), got.IDs())
	for _, id := range want.IDs() {
		w, _ := want.Get(id)
		g, err := got.Get(id)
		require.NoError(t, err)
		assert.Equal(t, w.Orientation, g.Orientation, id)
		assert.Equal(t, w.Energy, g.Energy, id)
		assert.Equal(t, w.Frequency, g.Frequency, id)
		assert.Equal(t, w.Phase, g.Phase, id)
		assert.Equal(t, w.ExpansionDepth, g.ExpansionDepth, id)
		assert.Equal(t, w.AbsorbedIDs, g.AbsorbedIDs, id)
		assert.Equal(t, w.Metadata, g.Metadata, id)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt), id)
		assert.True(t, w.UpdatedAt.Equal(g.UpdatedAt), id)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := populated(t)
	path := filepath.Join(t.TempDir(), "nested", "kb.json")

	require.NoError(t, Save(s, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assertSameStore(t, s, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSave_WireFormat(t *testing.T) {
	s := store.New()
	p, err := wave.NewConverter().ConvertWithID("only", []float64{1, 2, 3}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(p))
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, Save(s, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	for _, key := range []string{`"version": 1`, `"orientation": [`, `"absorbed_ids": []`, `"metadata": {}`, `"expansion_depth": 0`} {
		assert.Contains(t, text, key)
	}
}

func TestDecode_RejectsVersion(t *testing.T) {
	tests := map[string]string{
		"missing": `{"patterns": []}`,
		"future":  `{"version": 2, "patterns": []}`,
		"garbage": `not json`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.True(t, errors.Is(err, models.ErrUnsupportedFormat), "got %v", err)
		})
	}
}

func TestDecode_EmptyPatterns(t *testing.T) {
	patterns, err := Decode(strings.NewReader(`{"version": 1}`))
	require.NoError(t, err)
	assert.Empty(t, patterns)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Contains(t, buf.String(), `"patterns": []`)
}

func TestLoad_RejectsInvalidPatterns(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"duplicate":   `{"version":1,"patterns":[{"id":"a","orientation":[1,0,0,0]},{"id":"a","orientation":[1,0,0,0]}]}`,
		"not unit":    `{"version":1,"patterns":[{"id":"a","orientation":[2,0,0,0]}]}`,
		"short":       `{"version":1,"patterns":[{"id":"a","orientation":[1,0,0]}]}`,
		"self absorb": `{"version":1,"patterns":[{"id":"a","orientation":[1,0,0,0],"absorbed_ids":["a"]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadInto_KeepsStoreOnFailure(t *testing.T) {
	s := populated(t)
	before := s.IDs()
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":9}`), 0644))

	err := LoadInto(s, path)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
	assert.Equal(t, before, s.IDs())

	good := filepath.Join(t.TempDir(), "good.json")
	require.NoError(t, Save(populated(t), good))
	s.Clear()
	require.NoError(t, LoadInto(s, good))
	assert.Equal(t, before, s.IDs())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestBootstrap(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	s, err := Bootstrap("", missing)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	path := filepath.Join(dir, "kb.json")
	require.NoError(t, Save(populated(t), path))
	s, err = Bootstrap(missing, path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0644))
	_, err = Bootstrap(bad, path)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
}
