// Package search provides brute-force resonance search over a pattern store.
package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/wavekb/internal/models"
	"github.com/hyperjump/wavekb/internal/resonance"
	"github.com/hyperjump/wavekb/internal/store"
)

// Options controls a search.
type Options struct {
	// TopK is the maximum number of results. It must be positive.
	TopK int
	// MinResonance drops results scoring below it. Must be in [0,1].
	MinResonance float64
	// Filter, when set, restricts scoring to ids for which it returns true.
	Filter func(id string) bool
	// ExcludeIDs are never returned.
	ExcludeIDs []string
	// Explain attaches the sub-score breakdown to each result.
	Explain bool
}

// Stats describes the work done by one search.
type Stats struct {
	Scanned int
	Matched int
}

// Index ranks stored patterns by resonance with a query pattern.
type Index struct {
	matcher *resonance.Matcher
}

// NewIndex returns an Index scoring with matcher (a default Matcher when nil).
func NewIndex(matcher *resonance.Matcher) *Index {
	if matcher == nil {
		matcher = resonance.NewMatcher()
	}
	return &Index{matcher: matcher}
}

type scored struct {
	id        string
	resonance float64
	breakdown models.Breakdown
}

// Search scores every stored pattern against query, keeps those at or above
// MinResonance, and returns at most TopK of them in descending order. Equal scores
// keep insertion order. An empty result is not an error.
func (x *Index) Search(s *store.Store, query *models.WavePattern, opts Options) ([]*models.Result, error) {
	results, _, err := x.SearchWithStats(s, query, opts)
	return results, err
}

// SearchWithStats is Search plus scan statistics.
func (x *Index) SearchWithStats(s *store.Store, query *models.WavePattern, opts Options) ([]*models.Result, Stats, error) {
	if err := validate(query, opts); err != nil {
		return nil, Stats{}, err
	}
	exclude := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	var (
		hits  []scored
		stats Stats
	)
	err := s.View(func(patterns []*models.WavePattern) error {
		hits = make([]scored, 0, len(patterns))
		for _, p := range patterns {
			if _, skip := exclude[p.ID]; skip {
				continue
			}
			if opts.Filter != nil && !opts.Filter(p.ID) {
				continue
			}
			stats.Scanned++
			score := x.matcher.Score(query, p)
			if score < opts.MinResonance {
				continue
			}
			h := scored{id: p.ID, resonance: score}
			if opts.Explain {
				h.breakdown = x.matcher.Breakdown(query, p)
			}
			hits = append(hits, h)
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	stats.Matched = len(hits)

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].resonance > hits[j].resonance })
	if len(hits) > opts.TopK {
		hits = hits[:opts.TopK]
	}

	out := make([]*models.Result, len(hits))
	for i, h := range hits {
		r := &models.Result{ID: h.id, Resonance: h.resonance, Rank: i + 1}
		if opts.Explain {
			bd := h.breakdown
			r.Breakdown = &bd
		}
		out[i] = r
	}
	return out, stats, nil
}

func validate(query *models.WavePattern, opts Options) error {
	if query == nil {
		return fmt.Errorf("%w: query pattern is nil", models.ErrInvalidArgument)
	}
	if opts.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", models.ErrInvalidArgument, opts.TopK)
	}
	if math.IsNaN(opts.MinResonance) || opts.MinResonance < 0 || opts.MinResonance > 1 {
		return fmt.Errorf("%w: min_resonance must be in [0,1], got %g", models.ErrInvalidArgument, opts.MinResonance)
	}
	return nil
}
