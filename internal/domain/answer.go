package domain

// AnswerStatus tracks the grading state of a single answer.
type AnswerStatus string

const (
	AnswerUnchecked AnswerStatus = "unchecked"
	AnswerRight     AnswerStatus = "right"
	AnswerWrong     AnswerStatus = "wrong"
	AnswerOnAppeal  AnswerStatus = "on_appeal"
)

// Answer is one team's response to one question. It holds plain coordinates
// (team id, round/question numbers) rather than back-references to its owners,
// so the same record can live in both the Question's and the Team's indexes.
type Answer struct {
	TeamID   string
	Round    int
	Question int
	Blitz    bool
	Text     string
	Score    int
	Status   AnswerStatus
}

func (a *Answer) multiplier() int {
	if a.Blitz {
		return 2
	}
	return 1
}

// Accept grades the answer right. The score is always recomputed from cost,
// never accumulated, so repeated grading calls stay idempotent.
func (a *Answer) Accept(cost int) {
	a.Status = AnswerRight
	a.Score = cost * a.multiplier()
}

// Reject grades the answer wrong with the given penalty. Sequential-format
// grading passes penalty 0 (wrong answers simply score zero); the matrix
// format passes the full question cost.
func (a *Answer) Reject(penalty int) {
	a.Status = AnswerWrong
	a.Score = -penalty * a.multiplier()
}

// MarkOnAppeal parks the answer until its appeal is resolved.
func (a *Answer) MarkOnAppeal() {
	a.Status = AnswerOnAppeal
}

// Empty reports whether the team has actually submitted any text.
func (a *Answer) Empty() bool {
	return a.Text == ""
}
