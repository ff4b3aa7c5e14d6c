// Package memory provides an in-process basicfit.Store. Contents are lost
// when the process exits; it exists for tests and ephemeral runs.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/infodancer/basicfit"
	"github.com/infodancer/basicfit/errors"
)

func init() {
	basicfit.RegisterStore("memory", func(config basicfit.StoreConfig) (basicfit.Store, error) {
		return New(), nil
	})
}

// Store is a mutex-guarded map.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Load returns a copy of the current contents.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.ErrStoreClosed
	}
	return maps.Clone(s.values), nil
}

// Apply applies edits under a single lock.
func (s *Store) Apply(ctx context.Context, edits ...basicfit.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrStoreClosed
	}
	basicfit.ApplyTo(s.values, edits)
	return nil
}

// Close marks the store closed. Further calls fail with errors.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
