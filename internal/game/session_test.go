package game

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"biggame-service/internal/domain"
)

func testConfig() domain.MatchConfig {
	return domain.MatchConfig{
		Teams: []domain.TeamConfig{
			{ID: "t1", Name: "Alpha"},
			{ID: "t2", Name: "Beta"},
		},
		Games: map[domain.GameKind]*domain.GameConfig{
			domain.GameSequential: {Rounds: 2, Questions: 3, Cost: 100},
			domain.GameMatrix:     {Rounds: 1, Questions: 3, Cost: 10},
			domain.GameQuiz: {
				Rounds:     2,
				Questions:  3,
				Cost:       10,
				RoundKinds: []domain.RoundKind{domain.RoundNormal, domain.RoundBlitz},
			},
		},
	}
}

func newTestSession(t *testing.T, clock clockwork.Clock) *MatchSession {
	t.Helper()
	session, err := BuildSession("m1", "Test Match", testConfig(), clock)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	return session
}

func TestBuildSessionRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Games[domain.GameSequential].RoundNames = []string{"only one name"}

	_, err := BuildSession("m1", "Bad", cfg, clockwork.NewFakeClock())
	if !errors.Is(err, domain.ErrBadConfig) {
		t.Fatalf("expected ErrBadConfig, got %v", err)
	}
}

func TestSequentialAnswersGatedByTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	if _, err := session.SetCurrentQuestion(1, 1); err != nil {
		t.Fatalf("set question: %v", err)
	}
	if err := session.GiveAnswer("t1", "Paris"); !errors.Is(err, domain.ErrTimerNotRunning) {
		t.Fatalf("expected ErrTimerNotRunning before start, got %v", err)
	}

	if _, err := session.StartTimer(0); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if err := session.GiveAnswer("t1", "Paris"); err != nil {
		t.Fatalf("give answer: %v", err)
	}

	report, err := session.AcceptAnswers("Paris")
	if err != nil {
		t.Fatalf("accept answers: %v", err)
	}
	if report.Totals["t1"] != 100 {
		t.Fatalf("expected t1 total 100, got %d", report.Totals["t1"])
	}
	if report.Totals["t2"] != 0 {
		t.Fatalf("expected t2 total 0, got %d", report.Totals["t2"])
	}
}

func TestMatrixAnswersAreUngated(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	if err := session.SwitchGame(domain.GameMatrix); err != nil {
		t.Fatalf("switch game: %v", err)
	}
	if _, err := session.SetCurrentQuestion(1, 2); err != nil {
		t.Fatalf("set question: %v", err)
	}
	// No timer started: matrix still takes answers.
	if err := session.GiveAnswer("t1", "whale"); err != nil {
		t.Fatalf("matrix answer should be ungated, got %v", err)
	}

	report, err := session.RejectAnswers("whale")
	if err != nil {
		t.Fatalf("reject answers: %v", err)
	}
	// Matrix question 2 costs 2x base; wrong grid entries take the full penalty.
	if report.Totals["t1"] != -20 {
		t.Fatalf("expected matrix penalty -20, got %d", report.Totals["t1"])
	}
}

func TestSequentialRejectScoresZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SetCurrentQuestion(1, 1)
	session.StartTimer(0)
	session.GiveAnswer("t1", "Lyon")

	report, err := session.RejectAnswers("Lyon")
	if err != nil {
		t.Fatalf("reject answers: %v", err)
	}
	if report.Totals["t1"] != 0 {
		t.Fatalf("expected sequential reject total 0, got %d", report.Totals["t1"])
	}
}

func TestQuizBlitzRoundDoublesAndRejectsToZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	if err := session.SwitchGame(domain.GameQuiz); err != nil {
		t.Fatalf("switch game: %v", err)
	}
	// Round 2 is the blitz round.
	if _, err := session.SetCurrentQuestion(2, 1); err != nil {
		t.Fatalf("set question: %v", err)
	}
	session.StartTimer(0)
	if err := session.GiveAnswer("t1", "42"); err != nil {
		t.Fatalf("give answer: %v", err)
	}

	report, _ := session.AcceptAnswers("42")
	if report.Totals["t1"] != 20 {
		t.Fatalf("expected blitz accept 20, got %d", report.Totals["t1"])
	}

	report, _ = session.RejectAnswers("42")
	if report.Totals["t1"] != 0 {
		t.Fatalf("expected blitz reject 0 (not -20), got %d", report.Totals["t1"])
	}
}

func TestAppealResolutionRegradesAllMatchingTeams(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SetCurrentQuestion(1, 1)
	session.StartTimer(0)
	session.GiveAnswer("t1", "Lyon")
	session.GiveAnswer("t2", "Lyon")
	session.RejectAnswers("Lyon")

	if _, err := session.GiveAppeal("t1", 1, 1, "Lyon is also correct", "Lyon"); err != nil {
		t.Fatalf("give appeal: %v", err)
	}

	report, err := session.AcceptAppeals(1, 1, "Lyon", "accepted after review")
	if err != nil {
		t.Fatalf("accept appeals: %v", err)
	}
	if report.Totals["t1"] != 100 || report.Totals["t2"] != 100 {
		t.Fatalf("expected both teams re-scored to 100, got t1=%d t2=%d", report.Totals["t1"], report.Totals["t2"])
	}
}

func TestSwitchGamePreservesPointerAndTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SetCurrentQuestion(2, 3)
	session.StartTimer(0)
	clock.Advance(10 * time.Second)
	session.PauseTimer()

	before, _ := session.TimerState()

	session.SwitchGame(domain.GameMatrix)
	clock.Advance(time.Minute)
	session.SwitchGame(domain.GameSequential)

	after, err := session.TimerState()
	if err != nil {
		t.Fatalf("timer state: %v", err)
	}
	if after.Remaining != before.Remaining {
		t.Fatalf("timer drifted across switch: before=%v after=%v", before.Remaining, after.Remaining)
	}
	ps, _ := session.CurrentPointer()
	if ps.Pointer == nil || ps.Pointer.Round != 2 || ps.Pointer.Question != 3 {
		t.Fatalf("pointer lost across switch: %+v", ps.Pointer)
	}
}

func TestBreakPausesQuestionTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SetCurrentQuestion(1, 1)
	session.StartTimer(0)
	clock.Advance(5 * time.Second)

	bs := session.StartBreak(10 * time.Minute)
	if !bs.OnBreak {
		t.Fatalf("expected break running")
	}
	st, _ := session.TimerState()
	if st.Running {
		t.Fatalf("question timer must not run during intermission")
	}
	frozen := st.Remaining

	clock.Advance(time.Minute)
	st, _ = session.TimerState()
	if st.Remaining != frozen {
		t.Fatalf("paused timer drifted during break: %v vs %v", st.Remaining, frozen)
	}

	// Restarting the clock ends the intermission and resumes the window.
	st, _ = session.StartTimer(0)
	if !st.Running || st.Remaining != frozen {
		t.Fatalf("expected resumed timer at %v, got running=%v remaining=%v", frozen, st.Running, st.Remaining)
	}
	if session.Break().OnBreak {
		t.Fatalf("expected break cleared by timer start")
	}
}

func TestRestoreFromEmptySnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session, err := RestoreSession("m1", "Restored", testConfig(), nil, clock)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	g, err := session.Game(domain.GameSequential)
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if dict := g.AllTeamsDictionary(); dict["Alpha"] != "t1" || dict["Beta"] != "t2" {
		t.Fatalf("bad team dictionary: %v", dict)
	}
	if dict, err := g.TeamDictionary("t1"); err != nil || dict["Alpha"] != "t1" {
		t.Fatalf("bad single-team dictionary: %v err=%v", dict, err)
	}
	tables := g.ScoreTable()
	if len(tables) != 2 {
		t.Fatalf("expected 2 team tables, got %d", len(tables))
	}
	for teamID, table := range tables {
		if len(table) != 2 || len(table[0]) != 3 {
			t.Fatalf("team %s: wrong table shape %dx%d", teamID, len(table), len(table[0]))
		}
		for _, row := range table {
			for _, score := range row {
				if score != 0 {
					t.Fatalf("expected all-zero table, got %d", score)
				}
			}
		}
	}
}

func TestFlattenRestoreRoundtrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SetCurrentQuestion(1, 2)
	session.StartTimer(0)
	session.GiveAnswer("t1", "Paris")
	session.AcceptAnswers("Paris")
	session.GiveAnswer("t2", "Lyon")
	session.RejectAnswers("Lyon")
	if _, err := session.GiveAppeal("t2", 1, 2, "Lyon counts", "Lyon"); err != nil {
		t.Fatalf("give appeal: %v", err)
	}

	snap := session.Flatten()
	restored, err := RestoreSession("m1", "Test Match", testConfig(), snap, clock)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	report, err := restored.Scores()
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if report.Totals["t1"] != 100 || report.Totals["t2"] != 0 {
		t.Fatalf("restored totals wrong: %+v", report.Totals)
	}
	appeals := restored.AllPendingAppeals()
	if len(appeals) != 1 || appeals[0].TeamID != "t2" || appeals[0].AnswerText != "Lyon" {
		t.Fatalf("expected t2's pending appeal restored, got %+v", appeals)
	}
}

func TestFullMatchReportsMatrixTotals(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	session.SwitchGame(domain.GameMatrix)
	session.SetCurrentQuestion(1, 1)
	session.GiveAnswer("t1", "guess")
	session.AcceptAnswers("guess")

	session.SwitchGame(domain.GameSequential)
	session.SetCurrentQuestion(1, 1)
	session.StartTimer(0)
	session.GiveAnswer("t1", "Paris")
	report, err := session.AcceptAnswers("Paris")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !session.IsFullMatch() {
		t.Fatalf("expected full match")
	}
	if report.MatrixTotals == nil || report.MatrixTotals["t1"] != 10 {
		t.Fatalf("expected matrix totals alongside sequential table, got %+v", report.MatrixTotals)
	}
}

func TestToggleAnswerTargetsMatrixSlot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	session := newTestSession(t, clock)

	// Current game stays sequential; the toggle still edits the matrix grid.
	report, err := session.ToggleAnswer("t1", 1, 3)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if report.Game != domain.GameMatrix || report.Totals["t1"] != 30 {
		t.Fatalf("expected matrix total 30, got game=%s total=%d", report.Game, report.Totals["t1"])
	}

	report, _ = session.ToggleAnswer("t1", 1, 3)
	if report.Totals["t1"] != 0 {
		t.Fatalf("expected toggle-off total 0, got %d", report.Totals["t1"])
	}
}
