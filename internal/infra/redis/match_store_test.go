package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
	"biggame-service/internal/infra/memory"
)

type countingStore struct {
	app.MatchStore
	loads int
}

func (s *countingStore) LoadMatch(ctx context.Context, matchID string) (app.MatchRecord, error) {
	s.loads++
	return s.MatchStore.LoadMatch(ctx, matchID)
}

func sampleRecord() app.MatchRecord {
	return app.MatchRecord{
		ID:   "match-1",
		Name: "Cached Match",
		Config: domain.MatchConfig{
			Teams: []domain.TeamConfig{{ID: "t1", Name: "Alpha"}},
			Games: map[domain.GameKind]*domain.GameConfig{
				domain.GameSequential: {Rounds: 1, Questions: 2, Cost: 100},
			},
		},
	}
}

func TestMatchStoreCachesRecordsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := memory.NewMatchStore(nil)
	inner.PutMatch(sampleRecord())
	counting := &countingStore{MatchStore: inner}
	store := NewMatchStore(client, counting, time.Minute)

	rec, err := store.LoadMatch(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("load match: %v", err)
	}
	if rec.Name != "Cached Match" || counting.loads != 1 {
		t.Fatalf("first load: rec=%+v loads=%d", rec, counting.loads)
	}
	if !mr.Exists("match:match-1:record") {
		t.Fatalf("expected record cached in redis")
	}

	// Second call should hit cache, backing store not incremented.
	rec, err = store.LoadMatch(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if counting.loads != 1 {
		t.Fatalf("expected cache hit, loads=%d", counting.loads)
	}
	if len(rec.Config.Teams) != 1 || rec.Config.Games[domain.GameSequential] == nil {
		t.Fatalf("cached record lost config: %+v", rec.Config)
	}
}

func TestMatchStoreUnknownMatchNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewMatchStore(client, memory.NewMatchStore(nil), time.Minute)

	if _, err := store.LoadMatch(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error for unknown match")
	}
	if mr.Exists("match:ghost:record") {
		t.Fatalf("miss must not be cached")
	}
}

func TestMatchStoreArchivesSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := memory.NewMatchStore(nil)
	store := NewMatchStore(client, inner, time.Minute)

	snap := &domain.MatchSnapshot{MatchID: "match-1", Name: "Cached Match"}
	if err := store.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	got, err := inner.LoadSnapshot(context.Background(), "match-1")
	if err != nil || got == nil {
		t.Fatalf("write-through missing: snap=%v err=%v", got, err)
	}
	if !mr.Exists("match:match-1:snapshot") {
		t.Fatalf("expected snapshot archived in redis")
	}
}
