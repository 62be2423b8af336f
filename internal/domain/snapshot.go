package domain

import "time"

// AnswerRecord is the flat, persistable form of one Answer.
type AnswerRecord struct {
	Game     GameKind     `json:"game"`
	TeamID   string       `json:"teamId"`
	TeamName string       `json:"teamName"`
	Round    int          `json:"round"`
	Question int          `json:"question"`
	Text     string       `json:"text"`
	Score    int          `json:"score"`
	Status   AnswerStatus `json:"status"`
	Blitz    bool         `json:"blitz,omitempty"`
}

// AppealRecord is the flat, persistable form of one Appeal.
type AppealRecord struct {
	Game       GameKind     `json:"game"`
	TeamID     string       `json:"teamId"`
	Round      int          `json:"round"`
	Question   int          `json:"question"`
	Text       string       `json:"text"`
	AnswerText string       `json:"answerText"`
	Comment    string       `json:"comment,omitempty"`
	Status     AppealStatus `json:"status"`
}

// MatchSnapshot flattens the mutable state of a session into the form the
// storage collaborator persists. Everything else about the match is derivable
// from its MatchConfig.
type MatchSnapshot struct {
	MatchID string         `json:"matchId"`
	Name    string         `json:"name"`
	Answers []AnswerRecord `json:"answers"`
	Appeals []AppealRecord `json:"appeals"`
	SavedAt time.Time      `json:"savedAt"`
}
