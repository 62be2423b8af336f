package app

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"biggame-service/internal/domain"
	"biggame-service/internal/game"
)

// MatchRecord is the stored description of a match: identity plus the
// immutable configuration authored before the match starts.
type MatchRecord struct {
	ID     string
	Name   string
	Config domain.MatchConfig
}

// MatchStore is the storage collaborator. It supplies match configuration and
// previously persisted state, and receives the final snapshot when a session
// ends. Persistence retries and schema concerns live behind this interface.
type MatchStore interface {
	LoadMatch(ctx context.Context, matchID string) (MatchRecord, error)
	LoadSnapshot(ctx context.Context, matchID string) (*domain.MatchSnapshot, error)
	SaveSnapshot(ctx context.Context, snap *domain.MatchSnapshot) error
}

// GameService owns session lifecycle: creating sessions from config,
// restoring them from persisted state, and finalizing them back to storage.
type GameService struct {
	registry *SessionRegistry
	store    MatchStore
	clock    clockwork.Clock
}

func NewGameService(registry *SessionRegistry, store MatchStore, clock clockwork.Clock) *GameService {
	return &GameService{registry: registry, store: store, clock: clock}
}

// Registry exposes the session registry to the transport layer.
func (s *GameService) Registry() *SessionRegistry {
	return s.registry
}

// CreateSession builds a live session from the given config and registers it.
// A config that fails validation aborts the whole operation; nothing is
// registered.
func (s *GameService) CreateSession(_ context.Context, matchID, name string, cfg domain.MatchConfig) (*game.MatchSession, error) {
	session, err := game.BuildSession(matchID, name, cfg, s.clock)
	if err != nil {
		return nil, err
	}
	s.registry.Register(session)
	return session, nil
}

// RestoreSession loads the match record and any persisted answer state from
// storage, rebuilds the object graph and registers the session.
func (s *GameService) RestoreSession(ctx context.Context, matchID string) (*game.MatchSession, error) {
	rec, err := s.store.LoadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.LoadSnapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}
	session, err := game.RestoreSession(rec.ID, rec.Name, rec.Config, snap, s.clock)
	if err != nil {
		return nil, err
	}
	s.registry.Register(session)
	return session, nil
}

// FinalizeSession removes the match from the registry, then persists its
// flattened state. The removal-first order makes finalization safe to race
// with in-flight messages: once it begins, no new message resolves to the
// match.
func (s *GameService) FinalizeSession(ctx context.Context, matchID string) (*domain.MatchSnapshot, error) {
	session, ok := s.registry.Remove(matchID)
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	snap := session.Flatten()
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Session resolves a live session.
func (s *GameService) Session(matchID string) (*game.MatchSession, bool) {
	return s.registry.Lookup(matchID)
}

// EvictExpired is the eviction callback wired into the registry sweeper: the
// session is already out of the map, so only persistence remains.
func (s *GameService) EvictExpired(ctx context.Context) func(*game.MatchSession) {
	return func(session *game.MatchSession) {
		if err := s.store.SaveSnapshot(ctx, session.Flatten()); err != nil {
			log.Error().Err(err).Str("match_id", session.ID()).Msg("failed to persist evicted session")
		}
	}
}
