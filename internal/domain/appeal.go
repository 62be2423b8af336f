package domain

// AppealStatus tracks the moderator ruling on an appeal.
type AppealStatus string

const (
	AppealUnchecked   AppealStatus = "unchecked"
	AppealAccepted    AppealStatus = "accepted"
	AppealNotAccepted AppealStatus = "not_accepted"
)

// Appeal is a team's dispute of a grading decision. AnswerText records the
// disputed answer text verbatim; appeal rulings re-grade every answer with
// that exact text, not just the appellant's.
type Appeal struct {
	TeamID     string
	Round      int
	Question   int
	Text       string
	AnswerText string
	Comment    string
	Status     AppealStatus
}

// Accept is a terminal transition.
func (p *Appeal) Accept(comment string) {
	p.Status = AppealAccepted
	p.Comment = comment
}

// Reject is a terminal transition.
func (p *Appeal) Reject(comment string) {
	p.Status = AppealNotAccepted
	p.Comment = comment
}

// Resolved reports whether a moderator has already ruled.
func (p *Appeal) Resolved() bool {
	return p.Status != AppealUnchecked
}
