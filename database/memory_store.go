package database

import (
	"context"
	"errors"
	"sync"

	"pats-app-go/models"
)

// ErrSaveFailed is returned by MemoryStore when a save failure has been
// injected via FailNextSave.
var ErrSaveFailed = errors.New("simulated save failure")

// MemoryStore implements StateStore with an in-memory copy of the league
// state. Used for testing and for development without a database. Loads
// and saves deep-copy the state so callers never alias the stored record.
type MemoryStore struct {
	mu           sync.RWMutex
	state        *models.LeagueState
	failNextSave bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: models.NewLeagueState(),
	}
}

// Load returns a deep copy of the stored state.
func (s *MemoryStore) Load(_ context.Context) (*models.LeagueState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone(), nil
}

// Save stores a deep copy of the given state.
func (s *MemoryStore) Save(_ context.Context, state *models.LeagueState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNextSave {
		s.failNextSave = false
		return ErrSaveFailed
	}

	s.state = state.Clone()
	return nil
}

// FailNextSave makes the next Save return ErrSaveFailed without storing
// anything. Tests use this to verify that a failed write-back leaves the
// durable state untouched.
func (s *MemoryStore) FailNextSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextSave = true
}
