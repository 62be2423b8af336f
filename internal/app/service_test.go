package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"biggame-service/internal/domain"
)

type fakeStore struct {
	matches   map[string]MatchRecord
	snapshots map[string]*domain.MatchSnapshot
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:   make(map[string]MatchRecord),
		snapshots: make(map[string]*domain.MatchSnapshot),
	}
}

func (s *fakeStore) LoadMatch(_ context.Context, matchID string) (MatchRecord, error) {
	rec, ok := s.matches[matchID]
	if !ok {
		return MatchRecord{}, domain.ErrMatchNotFound
	}
	return rec, nil
}

func (s *fakeStore) LoadSnapshot(_ context.Context, matchID string) (*domain.MatchSnapshot, error) {
	return s.snapshots[matchID], nil
}

func (s *fakeStore) SaveSnapshot(_ context.Context, snap *domain.MatchSnapshot) error {
	s.saves++
	s.snapshots[snap.MatchID] = snap
	return nil
}

func newTestService(store MatchStore) (*GameService, clockwork.Clock) {
	clock := clockwork.NewFakeClock()
	registry := NewSessionRegistry(clock, time.Hour)
	return NewGameService(registry, store, clock), clock
}

func TestCreateSessionRejectsBadConfig(t *testing.T) {
	service, _ := newTestService(newFakeStore())

	cfg := registryConfig()
	cfg.Teams = append(cfg.Teams, domain.TeamConfig{ID: "t1", Name: "Duplicate"})

	if _, err := service.CreateSession(context.Background(), "m1", "Bad", cfg); !errors.Is(err, domain.ErrBadConfig) {
		t.Fatalf("expected ErrBadConfig, got %v", err)
	}
	if service.Registry().Len() != 0 {
		t.Fatalf("failed create must register nothing")
	}
}

func TestFinalizeSessionPersistsAndRemoves(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(store)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "m1", "Final", registryConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	session.SetCurrentQuestion(1, 1)
	session.StartTimer(0)
	session.GiveAnswer("t1", "Paris")
	session.AcceptAnswers("Paris")

	snap, err := service.FinalizeSession(ctx, "m1")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(snap.Answers) != 1 || snap.Answers[0].Score != 100 {
		t.Fatalf("unexpected snapshot answers: %+v", snap.Answers)
	}
	if store.snapshots["m1"] == nil {
		t.Fatalf("snapshot not persisted")
	}
	if _, ok := service.Session("m1"); ok {
		t.Fatalf("session still live after finalize")
	}

	if _, err := service.FinalizeSession(ctx, "m1"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound on double finalize, got %v", err)
	}
}

func TestRestoreSessionFromStore(t *testing.T) {
	store := newFakeStore()
	store.matches["m1"] = MatchRecord{ID: "m1", Name: "Stored", Config: registryConfig()}
	store.snapshots["m1"] = &domain.MatchSnapshot{
		MatchID: "m1",
		Name:    "Stored",
		Answers: []domain.AnswerRecord{
			{Game: domain.GameSequential, TeamID: "t1", Round: 1, Question: 2, Text: "Paris", Score: 100, Status: domain.AnswerRight},
		},
	}

	service, _ := newTestService(store)
	session, err := service.RestoreSession(context.Background(), "m1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	report, err := session.Scores()
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if report.Totals["t1"] != 100 {
		t.Fatalf("expected restored total 100, got %d", report.Totals["t1"])
	}
	if _, ok := service.Session("m1"); !ok {
		t.Fatalf("restored session not registered")
	}
}

func TestRestoreSessionUnknownMatch(t *testing.T) {
	service, _ := newTestService(newFakeStore())
	if _, err := service.RestoreSession(context.Background(), "missing"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestEvictExpiredPersistsSnapshot(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(store)
	ctx := context.Background()

	session, err := service.CreateSession(ctx, "m1", "Evict", registryConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	service.Registry().Remove("m1")
	service.EvictExpired(ctx)(session)

	if store.saves != 1 || store.snapshots["m1"] == nil {
		t.Fatalf("expected one persisted snapshot, saves=%d", store.saves)
	}
}
