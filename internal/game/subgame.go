package game

import (
	"time"

	"github.com/jonboulle/clockwork"

	"biggame-service/internal/domain"
)

// Default question windows per format. Round config may override them.
const (
	sequentialQuestionTime = time.Minute
	matrixQuestionTime     = 20 * time.Second
	quizQuestionTime       = 20 * time.Second
	quizBlitzQuestionTime  = 40 * time.Second
)

// Pointer addresses the current question of a sub-game, 1-based.
type Pointer struct {
	Round    int `json:"round"`
	Question int `json:"question"`
}

// SubGame is one format instance within a match: its rounds, its teams, the
// current-question pointer and the question timer. Round and team membership
// are fixed before message traffic starts; only answer/appeal contents and
// timer state mutate afterwards. SubGame is not self-locking; the owning
// MatchSession serializes access.
type SubGame struct {
	kind    domain.GameKind
	rounds  []*domain.Round
	teams   map[string]*domain.Team
	current *Pointer
	timer   *Timer
}

func NewSubGame(kind domain.GameKind, clock clockwork.Clock) *SubGame {
	return &SubGame{
		kind:  kind,
		teams: make(map[string]*domain.Team),
		timer: NewTimer(clock, defaultQuestionTime(kind, domain.RoundNormal)),
	}
}

func defaultQuestionTime(kind domain.GameKind, round domain.RoundKind) time.Duration {
	switch kind {
	case domain.GameSequential:
		return sequentialQuestionTime
	case domain.GameQuiz:
		if round == domain.RoundBlitz {
			return quizBlitzQuestionTime
		}
		return quizQuestionTime
	default:
		return matrixQuestionTime
	}
}

// Kind returns the format tag.
func (g *SubGame) Kind() domain.GameKind { return g.kind }

// Timer returns the sub-game's question timer.
func (g *SubGame) Timer() *Timer { return g.timer }

// AddRound appends a round during setup.
func (g *SubGame) AddRound(r *domain.Round) {
	g.rounds = append(g.rounds, r)
}

// AddTeam registers a team during setup.
func (g *SubGame) AddTeam(t *domain.Team) {
	g.teams[t.ID] = t
}

// Team resolves a team id.
func (g *SubGame) Team(id string) (*domain.Team, error) {
	t, ok := g.teams[id]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return t, nil
}

// Round resolves a 1-based round number.
func (g *SubGame) Round(number int) (*domain.Round, error) {
	if number < 1 || number > len(g.rounds) {
		return nil, domain.ErrRoundNotFound
	}
	return g.rounds[number-1], nil
}

// Question resolves 1-based round/question coordinates.
func (g *SubGame) Question(round, question int) (*domain.Question, error) {
	r, err := g.Round(round)
	if err != nil {
		return nil, err
	}
	q, ok := r.Question(question)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return q, nil
}

// SetCurrent moves the question pointer. The previous question window ends
// with the move: the timer is rebased to the target round's question time and
// stopped.
func (g *SubGame) SetCurrent(round, question int) error {
	r, err := g.Round(round)
	if err != nil {
		return err
	}
	if _, ok := r.Question(question); !ok {
		return domain.ErrQuestionNotFound
	}
	g.current = &Pointer{Round: round, Question: question}
	g.timer.Reset(r.QuestionTime)
	return nil
}

// Current returns a copy of the pointer, or nil when unset.
func (g *SubGame) Current() *Pointer {
	if g.current == nil {
		return nil
	}
	p := *g.current
	return &p
}

// CurrentRound returns the round under the pointer.
func (g *SubGame) CurrentRound() (*domain.Round, error) {
	if g.current == nil {
		return nil, domain.ErrNoCurrentQuestion
	}
	return g.Round(g.current.Round)
}

// CurrentQuestion returns the question under the pointer.
func (g *SubGame) CurrentQuestion() (*domain.Question, error) {
	if g.current == nil {
		return nil, domain.ErrNoCurrentQuestion
	}
	return g.Question(g.current.Round, g.current.Question)
}

// ScoreTable builds, per team, a [round][question] score matrix sized to the
// sub-game geometry, zero-filled for unanswered cells.
func (g *SubGame) ScoreTable() map[string][][]int {
	out := make(map[string][][]int, len(g.teams))
	for id, team := range g.teams {
		out[id] = g.tableFor(team)
	}
	return out
}

// ScoreTableForTeam restricts the score table to one team. Used to hide the
// rest of the field when intrigue mode is on.
func (g *SubGame) ScoreTableForTeam(teamID string) ([][]int, error) {
	team, err := g.Team(teamID)
	if err != nil {
		return nil, err
	}
	return g.tableFor(team), nil
}

func (g *SubGame) tableFor(team *domain.Team) [][]int {
	table := make([][]int, len(g.rounds))
	for i, r := range g.rounds {
		table[i] = make([]int, len(r.Questions))
		for j := range r.Questions {
			if a, ok := team.AnswerAt(r.Number, j+1); ok {
				table[i][j] = a.Score
			}
		}
	}
	return table
}

// TotalScores sums each team's answers.
func (g *SubGame) TotalScores() map[string]int {
	out := make(map[string]int, len(g.teams))
	for id, team := range g.teams {
		out[id] = team.TotalScore()
	}
	return out
}

// TeamDictionary maps one team's display name to its id.
func (g *SubGame) TeamDictionary(teamID string) (map[string]string, error) {
	team, err := g.Team(teamID)
	if err != nil {
		return nil, err
	}
	return map[string]string{team.Name: team.ID}, nil
}

// AllTeamsDictionary maps every display name to its team id.
func (g *SubGame) AllTeamsDictionary() map[string]string {
	out := make(map[string]string, len(g.teams))
	for id, team := range g.teams {
		out[team.Name] = id
	}
	return out
}

// Rounds returns the ordered round list.
func (g *SubGame) Rounds() []*domain.Round {
	return g.rounds
}

// Teams returns the team map keyed by id.
func (g *SubGame) Teams() map[string]*domain.Team {
	return g.teams
}
