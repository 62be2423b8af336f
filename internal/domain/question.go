package domain

import "sort"

// Question is one scoring unit. It owns the per-team answer and appeal
// collections and all grading operations over them. Collections are keyed by
// team id; the Question never holds a reference back to its Round or SubGame.
type Question struct {
	Number  int
	Cost    int
	Text    string
	answers map[string]*Answer
	appeals map[string]*Appeal
}

func NewQuestion(number, cost int, text string) *Question {
	return &Question{
		Number:  number,
		Cost:    cost,
		Text:    text,
		answers: make(map[string]*Answer),
		appeals: make(map[string]*Appeal),
	}
}

// GiveAnswer records the team's response with status unchecked and score 0.
// A team keeps a single Answer per question: resubmission mutates the
// existing record in place rather than replacing it, so references held by
// the team's index stay valid.
func (q *Question) GiveAnswer(team *Team, round int, text string, blitz bool) *Answer {
	if a, ok := q.answers[team.ID]; ok {
		a.Text = text
		a.Blitz = blitz
		a.Score = 0
		a.Status = AnswerUnchecked
		return a
	}
	a := &Answer{
		TeamID:   team.ID,
		Round:    round,
		Question: q.Number,
		Blitz:    blitz,
		Text:     text,
		Status:   AnswerUnchecked,
	}
	q.answers[team.ID] = a
	team.RegisterAnswer(a)
	return a
}

// Answer returns the team's answer on this question, if any.
func (q *Question) Answer(teamID string) (*Answer, bool) {
	a, ok := q.answers[teamID]
	return a, ok
}

// Answers lists all answers on this question ordered by team id.
func (q *Question) Answers() []*Answer {
	out := make([]*Answer, 0, len(q.answers))
	for _, a := range q.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// ToggleAnswer flips a matrix grid cell by hand: an accepted cell is toggled
// back off without penalty, anything else is accepted at full cost. The cell
// need not carry submitted text; a missing record is created empty first.
func (q *Question) ToggleAnswer(team *Team, round int) *Answer {
	a, ok := q.answers[team.ID]
	if !ok {
		a = &Answer{
			TeamID:   team.ID,
			Round:    round,
			Question: q.Number,
			Status:   AnswerUnchecked,
		}
		q.answers[team.ID] = a
		team.RegisterAnswer(a)
	}
	if a.Status == AnswerRight {
		a.Reject(0)
	} else {
		a.Accept(q.Cost)
	}
	return a
}

// AcceptAnswers grades right every non-empty answer whose text equals the
// given text. Returns the number of answers graded.
func (q *Question) AcceptAnswers(text string) int {
	n := 0
	for _, a := range q.answers {
		if !a.Empty() && a.Text == text {
			a.Accept(q.Cost)
			n++
		}
	}
	return n
}

// RejectAnswers grades wrong every non-empty answer matching text. The matrix
// format penalizes wrong grid entries at full cost; all other formats zero
// the score out.
func (q *Question) RejectAnswers(text string, matrix bool) int {
	penalty := 0
	if matrix {
		penalty = q.Cost
	}
	n := 0
	for _, a := range q.answers {
		if !a.Empty() && a.Text == text {
			a.Reject(penalty)
			n++
		}
	}
	return n
}

// GiveAppeal files a dispute for the team. The team must already hold a
// non-empty answer on this question; the answer is parked on_appeal until a
// moderator rules.
func (q *Question) GiveAppeal(team *Team, text, wrongAnswer string) (*Appeal, error) {
	a, ok := q.answers[team.ID]
	if !ok || a.Empty() {
		return nil, ErrAnswerNotFound
	}
	appeal := &Appeal{
		TeamID:     team.ID,
		Round:      a.Round,
		Question:   q.Number,
		Text:       text,
		AnswerText: wrongAnswer,
		Status:     AppealUnchecked,
	}
	q.appeals[team.ID] = appeal
	a.MarkOnAppeal()
	return appeal, nil
}

// AcceptAppeal resolves every appeal recorded against the disputed text and
// re-grades the underlying answers through the bulk path, so all teams with
// the same text are corrected together.
func (q *Question) AcceptAppeal(disputedText, comment string) int {
	n := 0
	for _, p := range q.appeals {
		if p.AnswerText == disputedText && !p.Resolved() {
			p.Accept(comment)
			n++
		}
	}
	if n > 0 {
		q.AcceptAnswers(disputedText)
	}
	return n
}

// RejectAppeal mirrors AcceptAppeal with a wrong ruling.
func (q *Question) RejectAppeal(disputedText, comment string, matrix bool) int {
	n := 0
	for _, p := range q.appeals {
		if p.AnswerText == disputedText && !p.Resolved() {
			p.Reject(comment)
			n++
		}
	}
	if n > 0 {
		q.RejectAnswers(disputedText, matrix)
	}
	return n
}

// Appeals lists all appeals on this question ordered by team id.
func (q *Question) Appeals() []*Appeal {
	out := make([]*Appeal, 0, len(q.appeals))
	for _, p := range q.appeals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// PendingAppeals lists unresolved appeals only.
func (q *Question) PendingAppeals() []*Appeal {
	out := make([]*Appeal, 0, len(q.appeals))
	for _, p := range q.appeals {
		if !p.Resolved() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// RestoreAnswer reinstates a persisted answer record, bypassing grading
// rules. Used when rebuilding a session from storage.
func (q *Question) RestoreAnswer(team *Team, a *Answer) {
	q.answers[team.ID] = a
	team.RegisterAnswer(a)
}

// RestoreAppeal reinstates a persisted appeal record.
func (q *Question) RestoreAppeal(p *Appeal) {
	q.appeals[p.TeamID] = p
}
