package mocks

import (
	"sync"

	"github.com/maksimkurb/keen-route/src/internal/route"
)

// MockStore is an in-memory route.Store.
//
// Saved configurations are kept as snapshots so later edits of the caller's
// value do not leak into what was "persisted".
type MockStore struct {
	// LoadFunc is called by Load if not nil
	LoadFunc func() (*route.Config, error)
	// SaveFunc is called by Save if not nil
	SaveFunc func(cfg *route.Config) error

	mu        sync.Mutex
	initial   *route.Snapshot
	saved     []route.Snapshot
	loadCalls int
}

// NewMockStore creates a store that initially holds cfg (nil means empty).
func NewMockStore(cfg *route.Config) *MockStore {
	s := &MockStore{}
	if cfg != nil {
		snapshot := cfg.Snapshot()
		s.initial = &snapshot
	}
	return s
}

// Load returns the last saved configuration.
func (s *MockStore) Load() (*route.Config, error) {
	s.mu.Lock()
	s.loadCalls++
	last := s.initial
	if len(s.saved) > 0 {
		last = &s.saved[len(s.saved)-1]
	}
	s.mu.Unlock()

	if s.LoadFunc != nil {
		return s.LoadFunc()
	}
	if last == nil {
		return route.NewConfig(), nil
	}
	return route.FromSnapshot(*last)
}

// Save records a snapshot of cfg.
func (s *MockStore) Save(cfg *route.Config) error {
	if s.SaveFunc != nil {
		if err := s.SaveFunc(cfg); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, cfg.Snapshot())
	return nil
}

// SaveCalls returns how many configurations were saved successfully.
func (s *MockStore) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// LoadCalls returns how many times Load was called.
func (s *MockStore) LoadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCalls
}

// Last returns the most recently saved snapshot.
func (s *MockStore) Last() (route.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return route.Snapshot{}, false
	}
	return s.saved[len(s.saved)-1], true
}
