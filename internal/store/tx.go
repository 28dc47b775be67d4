package store

import (
	"fmt"

	"github.com/hyperjump/wavekb/internal/models"
)

// Tx is a read-modify-write view of the store handed to Modify. Puts are staged
// and only become visible when the Modify callback returns nil.
type Tx struct {
	s      *Store
	staged map[string]*models.WavePattern
	order  []string
}

// Get returns a copy of id, including changes staged earlier in this Tx.
func (tx *Tx) Get(id string) (*models.WavePattern, error) {
	if p, ok := tx.staged[id]; ok {
		return p.Clone(), nil
	}
	p, ok := tx.s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return p.Clone(), nil
}

// Put stages an update of an existing pattern with the same rules as Store.Update.
func (tx *Tx) Put(p *models.WavePattern) error {
	if p == nil {
		return fmt.Errorf("%w: nil pattern", models.ErrInvalidArgument)
	}
	current, ok := tx.staged[p.ID]
	if !ok {
		current = tx.s.patterns[p.ID]
	}
	next, err := tx.s.prepareUpdate(p.ID, p, current)
	if err != nil {
		return err
	}
	if _, seen := tx.staged[p.ID]; !seen {
		tx.order = append(tx.order, p.ID)
	}
	tx.staged[p.ID] = next
	return nil
}

// Modify runs fn under the exclusive lock. Nothing else can read or write the
// store until fn returns; staged puts are committed only if fn returns nil.
func (s *Store) Modify(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{s: s, staged: make(map[string]*models.WavePattern)}
	if err := fn(tx); err != nil {
		return err
	}
	for _, id := range tx.order {
		s.patterns[id] = tx.staged[id]
	}
	return nil
}
