package persistence

import (
	"errors"
	"fmt"
	"os"

	"github.com/hyperjump/wavekb/internal/store"
)

// Bootstrap returns a store loaded from the first of paths that exists, or an
// empty store when none does. A snapshot that exists but cannot be read is an
// error, never silently replaced by an empty store.
func Bootstrap(paths ...string) (*store.Store, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat snapshot %s: %w", p, err)
		}
		return Load(p)
	}
	return store.New(), nil
}
