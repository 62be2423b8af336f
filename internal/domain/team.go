package domain

import "sort"

// AnswerKey addresses one answer within a team's history.
type AnswerKey struct {
	Round    int
	Question int
}

// Team is a participant identity plus an index of its own answers, built
// incrementally as answers arrive. The index gives O(1) lookup per question
// and is the source of truth for total-score computation.
type Team struct {
	ID      string
	Name    string
	answers map[AnswerKey]*Answer
}

func NewTeam(id, name string) *Team {
	return &Team{
		ID:      id,
		Name:    name,
		answers: make(map[AnswerKey]*Answer),
	}
}

// RegisterAnswer records the answer under its round/question coordinates.
func (t *Team) RegisterAnswer(a *Answer) {
	t.answers[AnswerKey{Round: a.Round, Question: a.Question}] = a
}

// AnswerAt returns the team's answer for the given coordinates, if any.
func (t *Team) AnswerAt(round, question int) (*Answer, bool) {
	a, ok := t.answers[AnswerKey{Round: round, Question: question}]
	return a, ok
}

// Answers returns the team's full history ordered by round then question.
func (t *Team) Answers() []*Answer {
	out := make([]*Answer, 0, len(t.answers))
	for _, a := range t.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Question < out[j].Question
	})
	return out
}

// TotalScore folds the answer index into the team's current total.
func (t *Team) TotalScore() int {
	total := 0
	for _, a := range t.answers {
		total += a.Score
	}
	return total
}
