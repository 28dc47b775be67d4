// Package store provides the in-memory keyed collection of wave patterns.
package store

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/hyperjump/wavekb/internal/models"
)

// Store is an insertion-ordered, id-keyed collection of WavePatterns.
// Writes (Insert, Update, Delete, Modify, Replace, Clear) take the exclusive lock;
// reads (Get, All, View) share it. Patterns are copied on the way in and out, so
// callers never alias stored state.
type Store struct {
	order    []string
	patterns map[string]*models.WavePattern
	now      func() time.Time
	mu       sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		order:    make([]string, 0),
		patterns: make(map[string]*models.WavePattern),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert adds p. It fails with ErrDuplicateID if the id exists; there is no
// silent overwrite. Zero timestamps are stamped with the current time.
func (s *Store) Insert(p *models.WavePattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(p.Clone())
}

func (s *Store) insertLocked(p *models.WavePattern) error {
	if _, ok := s.patterns[p.ID]; ok {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, p.ID)
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.patterns[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

// Get returns a copy of the pattern with id.
func (s *Store) Get(id string) (*models.WavePattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return p.Clone(), nil
}

// Contains reports whether id is stored.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.patterns[id]
	return ok
}

// Update replaces the pattern stored under id. p.ID must be empty or equal id.
// The expansion depth may not decrease; created_at is preserved and updated_at
// is stamped.
func (s *Store) Update(id string, p *models.WavePattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.prepareUpdate(id, p, s.patterns[id])
	if err != nil {
		return err
	}
	s.patterns[id] = next
	return nil
}

func (s *Store) prepareUpdate(id string, p, current *models.WavePattern) (*models.WavePattern, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil pattern", models.ErrInvalidArgument)
	}
	next := p.Clone()
	if next.ID == "" {
		next.ID = id
	}
	if next.ID != id {
		return nil, fmt.Errorf("%w: pattern id %s does not match %s", models.ErrInvalidArgument, next.ID, id)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if next.ExpansionDepth < current.ExpansionDepth {
		return nil, fmt.Errorf("%w: expansion depth of %s cannot decrease (%d -> %d)",
			models.ErrInvalidArgument, id, current.ExpansionDepth, next.ExpansionDepth)
	}
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	return next, nil
}

// Delete removes id. Other patterns' absorbed ids keep referring to it.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patterns[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	delete(s.patterns, id)
	newOrder := make([]string, 0, len(s.order)-1)
	for _, existing := range s.order {
		if existing != id {
			newOrder = append(newOrder, existing)
		}
	}
	s.order = newOrder
	return nil
}

// Clear removes every pattern.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = make([]string, 0)
	s.patterns = make(map[string]*models.WavePattern)
}

// Len returns the number of stored patterns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// IDs returns the stored ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// List returns copies of every pattern in insertion order.
func (s *Store) List() []*models.WavePattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WavePattern, len(s.order))
	for i, id := range s.order {
		out[i] = s.patterns[id].Clone()
	}
	return out
}

// All iterates over copies of the patterns in insertion order. The sequence is a
// snapshot taken when iteration starts.
func (s *Store) All() iter.Seq[*models.WavePattern] {
	return func(yield func(*models.WavePattern) bool) {
		for _, p := range s.List() {
			if !yield(p) {
				return
			}
		}
	}
}

// View calls fn with the stored patterns in insertion order while holding the
// read lock. fn must not modify or retain the patterns.
func (s *Store) View(fn func(patterns []*models.WavePattern) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patterns := make([]*models.WavePattern, len(s.order))
	for i, id := range s.order {
		patterns[i] = s.patterns[id]
	}
	return fn(patterns)
}

// Replace swaps the whole contents for patterns, in the given order. On error the
// store is unchanged.
func (s *Store) Replace(patterns []*models.WavePattern) error {
	staged := New(WithClock(s.now))
	for _, p := range patterns {
		if err := staged.Insert(p); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = staged.order
	s.patterns = staged.patterns
	return nil
}
