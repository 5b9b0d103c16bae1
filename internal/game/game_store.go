package game

import (
	"context"
	"errors"
	"sync"

	"github.com/muscla87/cucu-telegram-game/internal/models"
)

// ErrStateNotFound is returned by a StateRepository when a chat has no stored game.
var ErrStateNotFound = errors.New("game state not found")

// StateRepository loads and stores one GameState per session key.
// Save creates the record when missing and replaces it otherwise.
type StateRepository interface {
	Get(ctx context.Context, key string) (*models.GameState, error)
	Save(ctx context.Context, state *models.GameState) error
}

// MemoryStore keeps game states in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*models.GameState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*models.GameState),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state *models.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ID] = state.Clone()
	return nil
}

// Delete drops a stored game.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}

// Len returns the number of stored games.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
