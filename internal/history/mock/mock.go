// Package mock provides a test double for the history.Store interface.
package mock

import (
	"sync"

	"github.com/voxprep/voxprep/internal/history"
)

// Store is an in-memory mock implementation of history.Store.
// Set LoadErr or SaveErr to inject failures.
type Store struct {
	mu sync.Mutex

	// Records is the current stored history. Load returns a copy; Save
	// replaces it.
	Records []history.Record

	// LoadErr, if non-nil, is returned by Load.
	LoadErr error

	// SaveErr, if non-nil, is returned by Save (without replacing Records).
	SaveErr error

	// LoadCalls is the number of times Load was called.
	LoadCalls int

	// SaveCalls records every slice passed to Save in order.
	SaveCalls [][]history.Record
}

// Load implements history.Store.
func (s *Store) Load() ([]history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadCalls++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make([]history.Record, len(s.Records))
	copy(out, s.Records)
	return out, nil
}

// Save implements history.Store.
func (s *Store) Save(records []history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make([]history.Record, len(records))
	copy(saved, records)
	s.SaveCalls = append(s.SaveCalls, saved)
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Records = saved
	return nil
}

// Ensure Store implements history.Store at compile time.
var _ history.Store = (*Store)(nil)
