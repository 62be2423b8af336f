package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
)

// MatchStore caches immutable match records in Redis in front of a slower
// backing store, and archives finalized snapshots alongside the write-through
// to the backing store. Records are stored as: SET match:{id}:record {json}.
type MatchStore struct {
	client *redis.Client
	inner  app.MatchStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewMatchStore(client *redis.Client, inner app.MatchStore, ttl time.Duration) *MatchStore {
	return &MatchStore{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type storedRecord struct {
	Name   string             `json:"name"`
	Config domain.MatchConfig `json:"config"`
}

func (s *MatchStore) LoadMatch(ctx context.Context, matchID string) (app.MatchRecord, error) {
	key := s.recordKey(matchID)
	if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var stored storedRecord
		if err := json.Unmarshal(raw, &stored); err == nil {
			return app.MatchRecord{ID: matchID, Name: stored.Name, Config: stored.Config}, nil
		}
	}

	result, err, _ := s.sf.Do(matchID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := s.client.Get(ctx, key).Bytes(); err == nil {
			var stored storedRecord
			if err := json.Unmarshal(raw, &stored); err == nil {
				return app.MatchRecord{ID: matchID, Name: stored.Name, Config: stored.Config}, nil
			}
		}

		rec, err := s.inner.LoadMatch(ctx, matchID)
		if err != nil {
			return app.MatchRecord{}, err
		}
		if raw, err := json.Marshal(storedRecord{Name: rec.Name, Config: rec.Config}); err == nil {
			_ = s.client.Set(ctx, key, raw, s.ttlWithJitter()).Err()
		}
		return rec, nil
	})
	if err != nil {
		return app.MatchRecord{}, err
	}
	return result.(app.MatchRecord), nil
}

// LoadSnapshot always reads through: snapshots change on every finalize and
// a stale restore would silently lose answers.
func (s *MatchStore) LoadSnapshot(ctx context.Context, matchID string) (*domain.MatchSnapshot, error) {
	return s.inner.LoadSnapshot(ctx, matchID)
}

// SaveSnapshot writes through to the backing store and keeps a best-effort
// archive copy in Redis for quick inspection.
func (s *MatchStore) SaveSnapshot(ctx context.Context, snap *domain.MatchSnapshot) error {
	if err := s.inner.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_ = s.client.Set(ctx, s.snapshotKey(snap.MatchID), raw, s.ttlWithJitter()).Err()
	return nil
}

func (s *MatchStore) recordKey(matchID string) string {
	return "match:" + matchID + ":record"
}

func (s *MatchStore) snapshotKey(matchID string) string {
	return "match:" + matchID + ":snapshot"
}

func (s *MatchStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
