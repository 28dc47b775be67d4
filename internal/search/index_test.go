package search

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/quaternion"
	"github.com/hyperjump/wavekb/internal/store"
	"github.com/hyperjump/wavekb/internal/wave"
)

func periodic(n, cycles int, amp, offset float64, sine bool) []float64 {
	out := make([]float64, n)
	for i := range out {
		arg := 2 * math.Pi * float64(cycles*i) / float64(n)
		if sine {
			out[i] = amp*math.Sin(arg) + offset
		} else {
			out[i] = amp*math.Cos(arg) + offset
		}
	}
	return out
}

func animalStore(t *testing.T) (*store.Store, map[string][]float64) {
	t.Helper()
	embs := map[string][]float64{
		"cat": periodic(16, 2, 0.5, 0.3, false),
		"dog": periodic(16, 3, 0.5, 0.2, false),
		"car": periodic(16, 7, -1, -0.4, true),
	}
	s := store.New()
	c := wave.NewConverter()
	for _, id := range []string{"cat", "dog", "car"} {
		p, err := c.ConvertWithID(id, embs[id], models.Metadata{"label": id})
		require.NoError(t, err)
		require.NoError(t, s.Insert(p))
	}
	return s, embs
}

func TestSearch_RanksClosestFirst(t *testing.T) {
	s, embs := animalStore(t)
	query := append([]float64(nil), embs["cat"]...)
	query[0] += 1e-9
	qp, err := wave.NewConverter().Convert(query, nil)
	require.NoError(t, err)

	results, err := NewIndex(nil).Search(s, qp, Options{TopK: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "cat", results[0].ID)
	assert.Greater(t, results[0].Resonance, results[1].Resonance)
	assert.Greater(t, results[0].Resonance, results[2].Resonance)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Resonance, r.Resonance)
		}
	}
}

func TestSearch_PerturbedQueryStillFindsNearest(t *testing.T) {
	s, embs := animalStore(t)
	query := make([]float64, len(embs["cat"]))
	for i, v := range embs["cat"] {
		query[i] = 1.2*v + 0.08*math.Sin(1.7*float64(i)) + 0.05
	}
	qp, err := wave.NewConverter().Convert(query, nil)
	require.NoError(t, err)

	results, err := NewIndex(nil).Search(s, qp, Options{TopK: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"cat", "dog", "car"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.Less(t, results[0].Resonance, 1.0, "query is not the stored cat")
	assert.Greater(t, results[0].Resonance-results[1].Resonance, 0.01)
}

func farPattern(id string) *models.WavePattern {
	return &models.WavePattern{
		ID:          id,
		Orientation: quaternion.New(0, 1, 0, 0),
		Energy:      10,
		Frequency:   1,
		Phase:       math.Pi,
		AbsorbedIDs: []string{},
	}
}

func TestSearch_NothingAboveThresholdIsEmpty(t *testing.T) {
	s := store.New()
	require.NoError(t, s.Insert(farPattern("a")))
	require.NoError(t, s.Insert(farPattern("b")))
	query := &models.WavePattern{Orientation: quaternion.Identity, Energy: 1}

	results, err := NewIndex(nil).Search(s, query, Options{TopK: 2, MinResonance: 0.9})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	s := store.New()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.Insert(farPattern(id)))
	}
	query := &models.WavePattern{Orientation: quaternion.Identity, Energy: 1}
	results, err := NewIndex(nil).Search(s, query, Options{TopK: 10})
	require.NoError(t, err)
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	s, embs := animalStore(t)
	qp, _ := wave.NewConverter().Convert(embs["dog"], nil)
	results, err := NewIndex(nil).Search(s, qp, Options{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "dog", results[0].ID)
	assert.Equal(t, 1.0, results[0].Resonance)
}

func TestSearch_InvalidArguments(t *testing.T) {
	s := store.New()
	q := &models.WavePattern{Orientation: quaternion.Identity}
	idx := NewIndex(nil)
	tests := []struct {
		name string
		opts Options
	}{
		{"zero top_k", Options{TopK: 0}},
		{"negative top_k", Options{TopK: -3}},
		{"min resonance above one", Options{TopK: 1, MinResonance: 1.5}},
		{"negative min resonance", Options{TopK: 1, MinResonance: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.Search(s, q, tt.opts)
			assert.True(t, errors.Is(err, models.ErrInvalidArgument), "got %v", err)
		})
	}
	_, err := idx.Search(s, nil, Options{TopK: 1})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestSearch_FilterExcludeExplain(t *testing.T) {
	s, embs := animalStore(t)
	qp, _ := wave.NewConverter().Convert(embs["cat"], nil)

	results, stats, err := NewIndex(nil).SearchWithStats(s, qp, Options{
		TopK:       5,
		Filter:     func(id string) bool { return id != "car" },
		ExcludeIDs: []string{"cat"},
		Explain:    true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "dog", results[0].ID)
	assert.Equal(t, 1, stats.Scanned)
	require.NotNil(t, results[0].Breakdown)
	assert.Greater(t, results[0].Breakdown.OrientationAlignment, 0.0)
}

func TestSearch_EmptyStore(t *testing.T) {
	results, err := NewIndex(nil).Search(store.New(), &models.WavePattern{Orientation: quaternion.Identity}, Options{TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
}
