package memory

import (
	"context"
	"sync"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
)

// MatchStore is an in-memory implementation of app.MatchStore, useful for
// tests and for running the service without a database.
type MatchStore struct {
	mu        sync.RWMutex
	matches   map[string]app.MatchRecord
	snapshots map[string]*domain.MatchSnapshot
}

func NewMatchStore(matches map[string]app.MatchRecord) *MatchStore {
	if matches == nil {
		matches = make(map[string]app.MatchRecord)
	}
	return &MatchStore{
		matches:   matches,
		snapshots: make(map[string]*domain.MatchSnapshot),
	}
}

func (s *MatchStore) LoadMatch(_ context.Context, matchID string) (app.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return app.MatchRecord{}, domain.ErrMatchNotFound
	}
	return rec, nil
}

// LoadSnapshot returns nil for a match that never persisted state; restoring
// from zero answers is a valid, empty-scoreboard start.
func (s *MatchStore) LoadSnapshot(_ context.Context, matchID string) (*domain.MatchSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[matchID], nil
}

func (s *MatchStore) SaveSnapshot(_ context.Context, snap *domain.MatchSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.MatchID] = snap
	return nil
}

// PutMatch seeds a match record; setup-time only.
func (s *MatchStore) PutMatch(rec app.MatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[rec.ID] = rec
}
