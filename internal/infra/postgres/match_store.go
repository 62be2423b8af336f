package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
)

// MatchStore loads match configuration from Postgres and persists final
// session snapshots as JSONB.
type MatchStore struct {
	pool *pgxpool.Pool
}

func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

func (s *MatchStore) LoadMatch(ctx context.Context, matchID string) (app.MatchRecord, error) {
	var (
		name string
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT name, config FROM matches WHERE id=$1`, matchID).Scan(&name, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return app.MatchRecord{}, domain.ErrMatchNotFound
	}
	if err != nil {
		return app.MatchRecord{}, fmt.Errorf("load match: %w", err)
	}
	var cfg domain.MatchConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return app.MatchRecord{}, fmt.Errorf("unmarshal match config: %w", err)
	}
	return app.MatchRecord{ID: matchID, Name: name, Config: cfg}, nil
}

func (s *MatchStore) LoadSnapshot(ctx context.Context, matchID string) (*domain.MatchSnapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM match_snapshots WHERE match_id=$1`, matchID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap domain.MatchSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *MatchStore) SaveSnapshot(ctx context.Context, snap *domain.MatchSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO match_snapshots (match_id, data, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id) DO UPDATE SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at`,
		snap.MatchID, raw, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
