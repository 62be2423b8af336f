package domain

import "errors"

var (
	// ErrMatchNotFound is returned when a match id resolves to no live session.
	ErrMatchNotFound = errors.New("match not found")
	// ErrGameNotFound is returned when a match has no sub-game of the requested format.
	ErrGameNotFound = errors.New("game not found in match")
	// ErrTeamNotFound is returned when a team id is unknown to the sub-game.
	ErrTeamNotFound = errors.New("team not found in game")
	// ErrRoundNotFound indicates an out-of-range round number.
	ErrRoundNotFound = errors.New("round not found")
	// ErrQuestionNotFound indicates an out-of-range question number.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound is returned when a team acts on a question it never answered.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrTimerNotRunning rejects answer submissions outside the question window.
	ErrTimerNotRunning = errors.New("question timer is not running")
	// ErrNoCurrentQuestion is returned when no question pointer has been set yet.
	ErrNoCurrentQuestion = errors.New("no current question")
	// ErrBadConfig marks malformed match configuration; sessions are never
	// registered from a config that fails validation.
	ErrBadConfig = errors.New("invalid match config")
)
