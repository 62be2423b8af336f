package http

import (
	"time"

	"biggame-service/internal/domain"
	"biggame-service/internal/game"
)

// action is the closed set of wire commands. Unknown actions decode fine and
// fall through the dispatch switch as no-ops, so newer clients don't break
// older servers.
type action string

const (
	// shared
	actionPing       action = "ping"
	actionGetTime    action = "get_time"
	actionGetPointer action = "get_pointer"
	actionGetBreak   action = "get_break"
	actionGetStatus  action = "get_status"

	// moderator: timer
	actionStartTimer action = "start_timer"
	actionPauseTimer action = "pause_timer"
	actionStopTimer  action = "stop_timer"
	actionExtendTime action = "extend_time"

	// moderator: grading
	actionAcceptAnswers action = "accept_answers"
	actionRejectAnswers action = "reject_answers"
	actionAcceptAppeals action = "accept_appeals"
	actionRejectAppeals action = "reject_appeals"
	actionToggleAnswer  action = "toggle_answer"

	// moderator: queries
	actionGetAnswers     action = "get_answers"
	actionGetAppeals     action = "get_appeals"
	actionGetAllAppeals  action = "get_all_appeals"
	actionGetTeamAnswers action = "get_team_answers"

	// moderator: navigation
	actionChangeQuestion action = "change_question"
	actionSwitchGame     action = "switch_game"
	actionStartBreak     action = "start_break"
	actionStopBreak      action = "stop_break"

	// team
	actionGiveAnswer   action = "give_answer"
	actionGiveAppeal   action = "give_appeal"
	actionGetMyAnswers action = "get_my_answers"
)

// inboundMessage is the flat wire envelope: an action tag plus the union of
// all per-action fields.
type inboundMessage struct {
	Action      action `json:"action"`
	Round       int    `json:"round,omitempty"`
	Question    int    `json:"question,omitempty"`
	Text        string `json:"text,omitempty"`
	Comment     string `json:"comment,omitempty"`
	WrongAnswer string `json:"wrongAnswer,omitempty"`
	TeamID      string `json:"teamId,omitempty"`
	Game        string `json:"game,omitempty"`
	Seconds     int    `json:"seconds,omitempty"`
}

// outboundMessage is the event envelope written back to clients.
type outboundMessage struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type timerPayload struct {
	Running      bool `json:"running"`
	RemainingSec int  `json:"remainingSec"`
	MaxSec       int  `json:"maxSec"`
}

type pointerPayload struct {
	Game     string `json:"game"`
	Set      bool   `json:"set"`
	Round    int    `json:"round,omitempty"`
	Question int    `json:"question,omitempty"`
}

type breakPayload struct {
	OnBreak      bool `json:"onBreak"`
	RemainingSec int  `json:"remainingSec"`
}

type scoresPayload struct {
	Game         string             `json:"game"`
	Totals       map[string]int     `json:"totals"`
	Tables       map[string][][]int `json:"tables"`
	MatrixTotals map[string]int     `json:"matrixTotals,omitempty"`
}

type teamScoresPayload struct {
	Game   string  `json:"game"`
	TeamID string  `json:"teamId"`
	Total  int     `json:"total"`
	Table  [][]int `json:"table"`
}

type answersPayload struct {
	Answers []domain.AnswerRecord `json:"answers"`
}

type appealsPayload struct {
	Appeals []domain.AppealRecord `json:"appeals"`
}

type statusPayload struct {
	MatchID  string            `json:"matchId"`
	Name     string            `json:"name"`
	Game     string            `json:"game"`
	Pointer  pointerPayload    `json:"pointer"`
	Timer    timerPayload      `json:"timer"`
	Break    breakPayload      `json:"break"`
	Intrigue bool              `json:"intrigue"`
	Teams    map[string]string `json:"teams,omitempty"`
	Scores   any               `json:"scores,omitempty"`
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func timerMsg(st game.TimerStatus) outboundMessage {
	return outboundMessage{Event: "timer", Payload: timerPayload{
		Running:      st.Running,
		RemainingSec: seconds(st.Remaining),
		MaxSec:       seconds(st.Max),
	}}
}

func pointerMsg(ps game.PointerStatus) outboundMessage {
	return outboundMessage{Event: "pointer", Payload: pointerView(ps)}
}

func pointerView(ps game.PointerStatus) pointerPayload {
	p := pointerPayload{Game: string(ps.Game)}
	if ps.Pointer != nil {
		p.Set = true
		p.Round = ps.Pointer.Round
		p.Question = ps.Pointer.Question
	}
	return p
}

func breakMsg(bs game.BreakStatus) outboundMessage {
	return outboundMessage{Event: "break", Payload: breakPayload{
		OnBreak:      bs.OnBreak,
		RemainingSec: seconds(bs.Remaining),
	}}
}

func scoresMsg(r game.ScoreReport) outboundMessage {
	return outboundMessage{Event: "scores", Payload: scoresPayload{
		Game:         string(r.Game),
		Totals:       r.Totals,
		Tables:       r.Tables,
		MatrixTotals: r.MatrixTotals,
	}}
}

func teamScoresMsg(r game.TeamScoreReport) outboundMessage {
	return outboundMessage{Event: "scores", Payload: teamScoresPayload{
		Game:   string(r.Game),
		TeamID: r.TeamID,
		Total:  r.Total,
		Table:  r.Table,
	}}
}

func errorMsg(code, message string) outboundMessage {
	return outboundMessage{Event: "error", Payload: errorPayload{Code: code, Message: message}}
}
