package domain

import "time"

// RoundKind distinguishes normal rounds from quiz blitz rounds, where every
// answer is graded at doubled magnitude.
type RoundKind string

const (
	RoundNormal RoundKind = "normal"
	RoundBlitz  RoundKind = "blitz"
)

// Round is an ordered group of questions sharing a timing default. Question
// membership is fixed at construction.
type Round struct {
	Number       int
	Name         string
	Kind         RoundKind
	QuestionTime time.Duration
	Questions    []*Question
}

func NewRound(number int, name string, kind RoundKind, questionTime time.Duration, questions []*Question) *Round {
	if kind == "" {
		kind = RoundNormal
	}
	return &Round{
		Number:       number,
		Name:         name,
		Kind:         kind,
		QuestionTime: questionTime,
		Questions:    questions,
	}
}

// Question returns the 1-based question, if present.
func (r *Round) Question(number int) (*Question, bool) {
	if number < 1 || number > len(r.Questions) {
		return nil, false
	}
	return r.Questions[number-1], true
}

// Blitz reports whether answers in this round are graded at doubled cost.
func (r *Round) Blitz() bool {
	return r.Kind == RoundBlitz
}
