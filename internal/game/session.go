package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"biggame-service/internal/domain"
)

// slotOrder fixes the canonical slot order for iteration and for picking the
// initial current game.
var slotOrder = []domain.GameKind{domain.GameSequential, domain.GameMatrix, domain.GameQuiz}

// TimerStatus is an atomic view of the current question timer.
type TimerStatus struct {
	Running   bool
	Remaining time.Duration
	Max       time.Duration
}

// PointerStatus reports which question a sub-game is on.
type PointerStatus struct {
	Game    domain.GameKind
	Pointer *Pointer
}

// BreakStatus reports match-wide intermission state.
type BreakStatus struct {
	OnBreak   bool
	Remaining time.Duration
}

// ScoreReport is the observable scoring state broadcast after grading
// mutations. MatrixTotals is populated only for full matches reporting the
// sequential table, per the combined-scoreboard convention.
type ScoreReport struct {
	Game         domain.GameKind
	Totals       map[string]int
	Tables       map[string][][]int
	MatrixTotals map[string]int
}

// TeamScoreReport restricts a ScoreReport to one team for intrigue mode.
type TeamScoreReport struct {
	Game   domain.GameKind
	TeamID string
	Total  int
	Table  [][]int
}

// StatusSnapshot is the full resume view sent to a client reconnecting
// mid-match.
type StatusSnapshot struct {
	MatchID  string
	Name     string
	Game     domain.GameKind
	Pointer  *Pointer
	Timer    TimerStatus
	Break    BreakStatus
	Intrigue bool
	Teams    map[string]string
}

// MatchSession aggregates up to three sub-games and owns break state. All
// mutations of one match are serialized behind its mutex; every exported
// operation computes its result under the lock and returns an atomic
// snapshot, so callers broadcast consistent state.
type MatchSession struct {
	id   string
	name string

	mu         sync.Mutex
	clock      clockwork.Clock
	games      map[domain.GameKind]*SubGame
	current    domain.GameKind
	intrigue   bool
	breakTimer *Timer
}

// NewMatchSession wires an empty session; sub-games are attached by the
// builder before any message traffic.
func NewMatchSession(id, name string, intrigue bool, clock clockwork.Clock) *MatchSession {
	return &MatchSession{
		id:         id,
		name:       name,
		clock:      clock,
		games:      make(map[domain.GameKind]*SubGame),
		intrigue:   intrigue,
		breakTimer: NewTimer(clock, 0),
	}
}

func (s *MatchSession) ID() string   { return s.id }
func (s *MatchSession) Name() string { return s.name }

// AttachGame installs a sub-game slot during construction. The first attached
// slot in canonical order becomes current.
func (s *MatchSession) AttachGame(g *SubGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.Kind()] = g
	for _, kind := range slotOrder {
		if _, ok := s.games[kind]; ok {
			s.current = kind
			return
		}
	}
}

// Intrigue reports whether other teams' live scores are hidden from teams.
func (s *MatchSession) Intrigue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intrigue
}

// IsFullMatch reports whether all three formats are present.
func (s *MatchSession) IsFullMatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games) == len(slotOrder)
}

// CurrentGame returns the format timer/question commands currently target.
func (s *MatchSession) CurrentGame() domain.GameKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SwitchGame retargets timer/question commands to another present slot. The
// previously current sub-game keeps its pointer and timer untouched.
func (s *MatchSession) SwitchGame(kind domain.GameKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[kind]; !ok {
		return domain.ErrGameNotFound
	}
	s.current = kind
	return nil
}

// Game exposes a sub-game slot; used by builders and tests.
func (s *MatchSession) Game(kind domain.GameKind) (*SubGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameLocked(kind)
}

func (s *MatchSession) gameLocked(kind domain.GameKind) (*SubGame, error) {
	g, ok := s.games[kind]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return g, nil
}

func (s *MatchSession) currentLocked() *SubGame {
	return s.games[s.current]
}

// StartBreak opens a match-wide intermission. A running question timer is
// paused first: intermission and an active question window never overlap.
func (s *MatchSession) StartBreak(d time.Duration) BreakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.currentLocked(); g != nil && g.Timer().Running() {
		g.Timer().Pause()
	}
	s.breakTimer.Start(d)
	return s.breakStatusLocked()
}

// StopBreak ends the intermission.
func (s *MatchSession) StopBreak() BreakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakTimer.Reset(0)
	return s.breakStatusLocked()
}

// Break reports intermission state.
func (s *MatchSession) Break() BreakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakStatusLocked()
}

func (s *MatchSession) breakStatusLocked() BreakStatus {
	return BreakStatus{
		OnBreak:   s.breakTimer.Running(),
		Remaining: s.breakTimer.Remaining(),
	}
}

// StartTimer arms the current sub-game's question window. A timer paused
// mid-run resumes; otherwise a fresh countdown starts, from d when given or
// from the round's question time. Starting the clock ends any intermission.
func (s *MatchSession) StartTimer(d time.Duration) (TimerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TimerStatus{}, domain.ErrGameNotFound
	}
	s.breakTimer.Reset(0)
	t := g.Timer()
	if t.Paused() && t.Remaining() > 0 {
		t.Resume()
	} else {
		t.Start(d)
	}
	return timerStatus(t), nil
}

// PauseTimer freezes the current question window.
func (s *MatchSession) PauseTimer() (TimerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TimerStatus{}, domain.ErrGameNotFound
	}
	g.Timer().Pause()
	return timerStatus(g.Timer()), nil
}

// StopTimer cancels the current question window.
func (s *MatchSession) StopTimer() (TimerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TimerStatus{}, domain.ErrGameNotFound
	}
	g.Timer().Stop()
	return timerStatus(g.Timer()), nil
}

// ExtendTimer grants delta more time on the current question window.
func (s *MatchSession) ExtendTimer(delta time.Duration) (TimerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TimerStatus{}, domain.ErrGameNotFound
	}
	g.Timer().Extend(delta)
	return timerStatus(g.Timer()), nil
}

// TimerState reports the current sub-game's timer without mutating it.
func (s *MatchSession) TimerState() (TimerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TimerStatus{}, domain.ErrGameNotFound
	}
	return timerStatus(g.Timer()), nil
}

func timerStatus(t *Timer) TimerStatus {
	return TimerStatus{
		Running:   t.Running(),
		Remaining: t.Remaining(),
		Max:       t.Max(),
	}
}

// SetCurrentQuestion moves the current sub-game's pointer.
func (s *MatchSession) SetCurrentQuestion(round, question int) (PointerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return PointerStatus{}, domain.ErrGameNotFound
	}
	if err := g.SetCurrent(round, question); err != nil {
		return PointerStatus{}, err
	}
	return PointerStatus{Game: g.Kind(), Pointer: g.Current()}, nil
}

// CurrentPointer reports the current sub-game's pointer.
func (s *MatchSession) CurrentPointer() (PointerStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return PointerStatus{}, domain.ErrGameNotFound
	}
	return PointerStatus{Game: g.Kind(), Pointer: g.Current()}, nil
}

// GiveAnswer records a team's answer on the current question. Sequential and
// quiz submissions are gated by the running question timer; the matrix format
// accepts answers at any time because its grid has no shared clock.
func (s *MatchSession) GiveAnswer(teamID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return domain.ErrGameNotFound
	}
	team, err := g.Team(teamID)
	if err != nil {
		return err
	}
	r, err := g.CurrentRound()
	if err != nil {
		return err
	}
	q, err := g.CurrentQuestion()
	if err != nil {
		return err
	}
	if g.Kind() != domain.GameMatrix && !g.Timer().Running() {
		return domain.ErrTimerNotRunning
	}
	q.GiveAnswer(team, r.Number, text, r.Blitz())
	return nil
}

// GiveAppeal files a team's dispute against the grading of one of its
// answers. Zero coordinates target the current question.
func (s *MatchSession) GiveAppeal(teamID string, round, question int, text, wrongAnswer string) (domain.AppealRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return domain.AppealRecord{}, domain.ErrGameNotFound
	}
	team, err := g.Team(teamID)
	if err != nil {
		return domain.AppealRecord{}, err
	}
	q, err := s.questionAtLocked(g, round, question)
	if err != nil {
		return domain.AppealRecord{}, err
	}
	appeal, err := q.GiveAppeal(team, text, wrongAnswer)
	if err != nil {
		return domain.AppealRecord{}, err
	}
	return appealRecord(g.Kind(), appeal), nil
}

// questionAtLocked resolves coordinates, with (0, 0) meaning the sub-game's
// current question.
func (s *MatchSession) questionAtLocked(g *SubGame, round, question int) (*domain.Question, error) {
	if round == 0 && question == 0 {
		return g.CurrentQuestion()
	}
	return g.Question(round, question)
}

func (s *MatchSession) coordsLocked(g *SubGame, round, question int) (int, int, error) {
	if round == 0 && question == 0 {
		p := g.Current()
		if p == nil {
			return 0, 0, domain.ErrNoCurrentQuestion
		}
		return p.Round, p.Question, nil
	}
	return round, question, nil
}

// AcceptAnswers grades right every live answer on the current question whose
// text matches, and returns the resulting scoreboard.
func (s *MatchSession) AcceptAnswers(text string) (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return ScoreReport{}, domain.ErrGameNotFound
	}
	q, err := g.CurrentQuestion()
	if err != nil {
		return ScoreReport{}, err
	}
	q.AcceptAnswers(text)
	return s.scoreReportLocked(g), nil
}

// RejectAnswers grades wrong every live answer on the current question whose
// text matches. The matrix format penalizes at full cost; other formats zero
// the score.
func (s *MatchSession) RejectAnswers(text string) (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return ScoreReport{}, domain.ErrGameNotFound
	}
	q, err := g.CurrentQuestion()
	if err != nil {
		return ScoreReport{}, err
	}
	q.RejectAnswers(text, g.Kind() == domain.GameMatrix)
	return s.scoreReportLocked(g), nil
}

// AcceptAppeals rules in favour of every appeal on the given question that
// disputes the given text, re-grading all matching answers together.
func (s *MatchSession) AcceptAppeals(round, question int, disputedText, comment string) (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return ScoreReport{}, domain.ErrGameNotFound
	}
	q, err := s.questionAtLocked(g, round, question)
	if err != nil {
		return ScoreReport{}, err
	}
	q.AcceptAppeal(disputedText, comment)
	return s.scoreReportLocked(g), nil
}

// RejectAppeals rules against every appeal disputing the given text.
func (s *MatchSession) RejectAppeals(round, question int, disputedText, comment string) (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return ScoreReport{}, domain.ErrGameNotFound
	}
	q, err := s.questionAtLocked(g, round, question)
	if err != nil {
		return ScoreReport{}, err
	}
	q.RejectAppeal(disputedText, comment, g.Kind() == domain.GameMatrix)
	return s.scoreReportLocked(g), nil
}

// ToggleAnswer flips one matrix grid cell for a team; the moderator's manual
// correction path. Always targets the matrix slot regardless of the current
// game.
func (s *MatchSession) ToggleAnswer(teamID string, round, question int) (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.gameLocked(domain.GameMatrix)
	if err != nil {
		return ScoreReport{}, err
	}
	team, err := g.Team(teamID)
	if err != nil {
		return ScoreReport{}, err
	}
	round, question, err = s.coordsLocked(g, round, question)
	if err != nil {
		return ScoreReport{}, err
	}
	q, err := g.Question(round, question)
	if err != nil {
		return ScoreReport{}, err
	}
	q.ToggleAnswer(team, round)
	return s.scoreReportLocked(g), nil
}

// LiveAnswers lists the answers on one question of the current sub-game.
func (s *MatchSession) LiveAnswers(round, question int) ([]domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return nil, domain.ErrGameNotFound
	}
	q, err := s.questionAtLocked(g, round, question)
	if err != nil {
		return nil, err
	}
	return answerRecords(g, q.Answers()), nil
}

// PendingAppeals lists unresolved appeals on one question of the current
// sub-game.
func (s *MatchSession) PendingAppeals(round, question int) ([]domain.AppealRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return nil, domain.ErrGameNotFound
	}
	q, err := s.questionAtLocked(g, round, question)
	if err != nil {
		return nil, err
	}
	return appealRecords(g.Kind(), q.PendingAppeals()), nil
}

// AllPendingAppeals lists unresolved appeals across every sub-game.
func (s *MatchSession) AllPendingAppeals() []domain.AppealRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AppealRecord
	for _, kind := range slotOrder {
		g, ok := s.games[kind]
		if !ok {
			continue
		}
		for _, r := range g.Rounds() {
			for _, q := range r.Questions {
				out = append(out, appealRecords(kind, q.PendingAppeals())...)
			}
		}
	}
	return out
}

// TeamAnswers returns one team's full answer history in the current
// sub-game.
func (s *MatchSession) TeamAnswers(teamID string) ([]domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return nil, domain.ErrGameNotFound
	}
	team, err := g.Team(teamID)
	if err != nil {
		return nil, err
	}
	return answerRecords(g, team.Answers()), nil
}

// Scores reports the current sub-game's scoreboard.
func (s *MatchSession) Scores() (ScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return ScoreReport{}, domain.ErrGameNotFound
	}
	return s.scoreReportLocked(g), nil
}

// ScoresForTeam restricts the scoreboard to one team; the view teams get
// while intrigue mode hides the rest of the field.
func (s *MatchSession) ScoresForTeam(teamID string) (TeamScoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.currentLocked()
	if g == nil {
		return TeamScoreReport{}, domain.ErrGameNotFound
	}
	team, err := g.Team(teamID)
	if err != nil {
		return TeamScoreReport{}, err
	}
	table, _ := g.ScoreTableForTeam(teamID)
	return TeamScoreReport{
		Game:   g.Kind(),
		TeamID: teamID,
		Total:  team.TotalScore(),
		Table:  table,
	}, nil
}

// scoreReportLocked builds the broadcastable scoreboard. Full matches
// reporting the sequential table carry the matrix sums alongside, so a
// combined scoreboard can be shown.
func (s *MatchSession) scoreReportLocked(g *SubGame) ScoreReport {
	report := ScoreReport{
		Game:   g.Kind(),
		Totals: g.TotalScores(),
		Tables: g.ScoreTable(),
	}
	if g.Kind() == domain.GameSequential && len(s.games) == len(slotOrder) {
		if matrix, ok := s.games[domain.GameMatrix]; ok {
			report.MatrixTotals = matrix.TotalScores()
		}
	}
	return report
}

// Snapshot builds the resume view for a reconnecting client.
func (s *MatchSession) Snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatusSnapshot{
		MatchID:  s.id,
		Name:     s.name,
		Game:     s.current,
		Break:    s.breakStatusLocked(),
		Intrigue: s.intrigue,
	}
	if g := s.currentLocked(); g != nil {
		snap.Pointer = g.Current()
		snap.Timer = timerStatus(g.Timer())
		snap.Teams = g.AllTeamsDictionary()
	}
	return snap
}

// Flatten folds the session's mutable state into its persistable form.
func (s *MatchSession) Flatten() *domain.MatchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &domain.MatchSnapshot{
		MatchID: s.id,
		Name:    s.name,
		SavedAt: s.clock.Now(),
	}
	for _, kind := range slotOrder {
		g, ok := s.games[kind]
		if !ok {
			continue
		}
		for _, r := range g.Rounds() {
			for _, q := range r.Questions {
				snap.Answers = append(snap.Answers, answerRecords(g, q.Answers())...)
				snap.Appeals = append(snap.Appeals, appealRecords(kind, q.Appeals())...)
			}
		}
	}
	return snap
}

func answerRecords(g *SubGame, answers []*domain.Answer) []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, 0, len(answers))
	for _, a := range answers {
		out = append(out, answerRecord(g, a))
	}
	return out
}

func answerRecord(g *SubGame, a *domain.Answer) domain.AnswerRecord {
	name := ""
	if team, err := g.Team(a.TeamID); err == nil {
		name = team.Name
	}
	return domain.AnswerRecord{
		Game:     g.Kind(),
		TeamID:   a.TeamID,
		TeamName: name,
		Round:    a.Round,
		Question: a.Question,
		Text:     a.Text,
		Score:    a.Score,
		Status:   a.Status,
		Blitz:    a.Blitz,
	}
}

func appealRecords(kind domain.GameKind, appeals []*domain.Appeal) []domain.AppealRecord {
	out := make([]domain.AppealRecord, 0, len(appeals))
	for _, p := range appeals {
		out = append(out, appealRecord(kind, p))
	}
	return out
}

func appealRecord(kind domain.GameKind, p *domain.Appeal) domain.AppealRecord {
	return domain.AppealRecord{
		Game:       kind,
		TeamID:     p.TeamID,
		Round:      p.Round,
		Question:   p.Question,
		Text:       p.Text,
		AnswerText: p.AnswerText,
		Comment:    p.Comment,
		Status:     p.Status,
	}
}
