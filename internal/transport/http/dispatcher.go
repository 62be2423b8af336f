package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
	"biggame-service/internal/game"
)

// Caller is the resolved identity of one connection: which match it belongs
// to, the role upstream auth assigned, and the team identity for team
// connections. It is passed explicitly into every dispatch.
type Caller struct {
	MatchID string
	Role    app.Role
	TeamID  string
	Name    string
}

// Dispatcher decodes inbound wire messages, routes them to session
// operations by caller role, and fans observable mutations out to the
// match's connection sets.
type Dispatcher struct {
	service *app.GameService
}

func NewDispatcher(service *app.GameService) *Dispatcher {
	return &Dispatcher{service: service}
}

// Dispatch handles one inbound frame. Malformed frames and unknown actions
// are dropped without reply to tolerate client version skew; everything else
// gets either a reply or a terminal error payload.
func (d *Dispatcher) Dispatch(caller Caller, conn app.Conn, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Err(err).Str("match_id", caller.MatchID).Msg("dropping malformed frame")
		return
	}

	if msg.Action == actionPing {
		conn.Send(outboundMessage{Event: "pong"})
		return
	}

	if caller.MatchID == "" || (caller.Role != app.RoleModerator && caller.Role != app.RoleTeam) {
		conn.Send(errorMsg("not_authorized", "missing match or role"))
		return
	}
	if caller.Role == app.RoleTeam && caller.TeamID == "" {
		conn.Send(errorMsg("not_authorized", "missing team identity"))
		return
	}

	session, ok := d.service.Session(caller.MatchID)
	if !ok {
		conn.Send(errorMsg("match_not_started", ""))
		return
	}

	switch msg.Action {
	case actionGetTime, actionGetPointer, actionGetBreak, actionGetStatus:
		d.sharedQuery(session, caller, conn, msg)
	case actionGiveAnswer, actionGiveAppeal, actionGetMyAnswers:
		if caller.Role != app.RoleTeam {
			conn.Send(errorMsg("not_authorized", "team action"))
			return
		}
		d.teamAction(session, caller, conn, msg)
	case actionStartTimer, actionPauseTimer, actionStopTimer, actionExtendTime,
		actionAcceptAnswers, actionRejectAnswers, actionAcceptAppeals, actionRejectAppeals,
		actionToggleAnswer, actionGetAnswers, actionGetAppeals, actionGetAllAppeals,
		actionGetTeamAnswers, actionChangeQuestion, actionSwitchGame,
		actionStartBreak, actionStopBreak:
		if caller.Role != app.RoleModerator {
			conn.Send(errorMsg("not_authorized", "moderator action"))
			return
		}
		d.moderatorAction(session, caller, conn, msg)
	default:
		// Unknown action: deliberately a silent no-op.
		log.Debug().Str("action", string(msg.Action)).Msg("ignoring unknown action")
	}
}

func (d *Dispatcher) sharedQuery(session *game.MatchSession, caller Caller, conn app.Conn, msg inboundMessage) {
	switch msg.Action {
	case actionGetTime:
		st, err := session.TimerState()
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(timerMsg(st))
	case actionGetPointer:
		ps, err := session.CurrentPointer()
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(pointerMsg(ps))
	case actionGetBreak:
		conn.Send(breakMsg(session.Break()))
	case actionGetStatus:
		conn.Send(d.statusMsg(session, caller))
	}
}

func (d *Dispatcher) teamAction(session *game.MatchSession, caller Caller, conn app.Conn, msg inboundMessage) {
	switch msg.Action {
	case actionGiveAnswer:
		if err := session.GiveAnswer(caller.TeamID, msg.Text); err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "answer_received"})
	case actionGiveAppeal:
		rec, err := session.GiveAppeal(caller.TeamID, msg.Round, msg.Question, msg.Text, msg.WrongAnswer)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "appeal_received"})
		d.service.Registry().BroadcastToModerators(caller.MatchID, outboundMessage{
			Event:   "appeal",
			Payload: appealsPayload{Appeals: []domain.AppealRecord{rec}},
		})
	case actionGetMyAnswers:
		answers, err := session.TeamAnswers(caller.TeamID)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "answers", Payload: answersPayload{Answers: answers}})
	}
}

func (d *Dispatcher) moderatorAction(session *game.MatchSession, caller Caller, conn app.Conn, msg inboundMessage) {
	registry := d.service.Registry()
	switch msg.Action {
	case actionStartTimer:
		st, err := session.StartTimer(time.Duration(msg.Seconds) * time.Second)
		d.replyAndBroadcastTimer(caller.MatchID, conn, st, err)
	case actionPauseTimer:
		st, err := session.PauseTimer()
		d.replyAndBroadcastTimer(caller.MatchID, conn, st, err)
	case actionStopTimer:
		st, err := session.StopTimer()
		d.replyAndBroadcastTimer(caller.MatchID, conn, st, err)
	case actionExtendTime:
		st, err := session.ExtendTimer(time.Duration(msg.Seconds) * time.Second)
		d.replyAndBroadcastTimer(caller.MatchID, conn, st, err)

	case actionAcceptAnswers:
		report, err := session.AcceptAnswers(msg.Text)
		d.replyAndBroadcastScores(session, conn, report, err)
	case actionRejectAnswers:
		report, err := session.RejectAnswers(msg.Text)
		d.replyAndBroadcastScores(session, conn, report, err)
	case actionAcceptAppeals:
		report, err := session.AcceptAppeals(msg.Round, msg.Question, msg.Text, msg.Comment)
		d.replyAndBroadcastScores(session, conn, report, err)
	case actionRejectAppeals:
		report, err := session.RejectAppeals(msg.Round, msg.Question, msg.Text, msg.Comment)
		d.replyAndBroadcastScores(session, conn, report, err)
	case actionToggleAnswer:
		report, err := session.ToggleAnswer(msg.TeamID, msg.Round, msg.Question)
		d.replyAndBroadcastScores(session, conn, report, err)

	case actionGetAnswers:
		answers, err := session.LiveAnswers(msg.Round, msg.Question)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "answers", Payload: answersPayload{Answers: answers}})
	case actionGetAppeals:
		appeals, err := session.PendingAppeals(msg.Round, msg.Question)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "appeals", Payload: appealsPayload{Appeals: appeals}})
	case actionGetAllAppeals:
		conn.Send(outboundMessage{Event: "appeals", Payload: appealsPayload{Appeals: session.AllPendingAppeals()}})
	case actionGetTeamAnswers:
		answers, err := session.TeamAnswers(msg.TeamID)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(outboundMessage{Event: "answers", Payload: answersPayload{Answers: answers}})

	case actionChangeQuestion:
		ps, err := session.SetCurrentQuestion(msg.Round, msg.Question)
		if err != nil {
			d.replyErr(conn, err)
			return
		}
		conn.Send(pointerMsg(ps))
		registry.BroadcastToTeams(caller.MatchID, pointerMsg(ps))
	case actionSwitchGame:
		if err := session.SwitchGame(domain.GameKind(msg.Game)); err != nil {
			d.replyErr(conn, err)
			return
		}
		ps, _ := session.CurrentPointer()
		st, _ := session.TimerState()
		conn.Send(pointerMsg(ps))
		registry.BroadcastToTeams(caller.MatchID, pointerMsg(ps))
		registry.BroadcastToTeams(caller.MatchID, timerMsg(st))
	case actionStartBreak:
		bs := session.StartBreak(time.Duration(msg.Seconds) * time.Second)
		conn.Send(breakMsg(bs))
		registry.BroadcastToTeams(caller.MatchID, breakMsg(bs))
	case actionStopBreak:
		bs := session.StopBreak()
		conn.Send(breakMsg(bs))
		registry.BroadcastToTeams(caller.MatchID, breakMsg(bs))
	}
}

func (d *Dispatcher) replyAndBroadcastTimer(matchID string, conn app.Conn, st game.TimerStatus, err error) {
	if err != nil {
		d.replyErr(conn, err)
		return
	}
	m := timerMsg(st)
	conn.Send(m)
	d.service.Registry().BroadcastToTeams(matchID, m)
}

func (d *Dispatcher) replyAndBroadcastScores(session *game.MatchSession, conn app.Conn, report game.ScoreReport, err error) {
	if err != nil {
		d.replyErr(conn, err)
		return
	}
	m := scoresMsg(report)
	conn.Send(m)
	if session.Intrigue() {
		d.service.Registry().SendToTeams(session.ID(), func(teamID string) any {
			r, err := session.ScoresForTeam(teamID)
			if err != nil {
				return nil
			}
			return teamScoresMsg(r)
		})
		return
	}
	d.service.Registry().BroadcastToTeams(session.ID(), m)
}

// statusMsg builds the resume snapshot, shaping the score section by role
// and intrigue mode.
func (d *Dispatcher) statusMsg(session *game.MatchSession, caller Caller) outboundMessage {
	snap := session.Snapshot()
	payload := statusPayload{
		MatchID: snap.MatchID,
		Name:    snap.Name,
		Game:    string(snap.Game),
		Pointer: pointerView(game.PointerStatus{Game: snap.Game, Pointer: snap.Pointer}),
		Timer: timerPayload{
			Running:      snap.Timer.Running,
			RemainingSec: seconds(snap.Timer.Remaining),
			MaxSec:       seconds(snap.Timer.Max),
		},
		Break: breakPayload{
			OnBreak:      snap.Break.OnBreak,
			RemainingSec: seconds(snap.Break.Remaining),
		},
		Intrigue: snap.Intrigue,
		Teams:    snap.Teams,
	}
	if caller.Role == app.RoleTeam && snap.Intrigue {
		if r, err := session.ScoresForTeam(caller.TeamID); err == nil {
			payload.Scores = teamScoresPayload{
				Game:   string(r.Game),
				TeamID: r.TeamID,
				Total:  r.Total,
				Table:  r.Table,
			}
		}
	} else if report, err := session.Scores(); err == nil {
		payload.Scores = scoresPayload{
			Game:         string(report.Game),
			Totals:       report.Totals,
			Tables:       report.Tables,
			MatrixTotals: report.MatrixTotals,
		}
	}
	return outboundMessage{Event: "status", Payload: payload}
}

// replyErr converts engine errors into a non-fatal reply to the originating
// connection only. Nothing here propagates or broadcasts.
func (d *Dispatcher) replyErr(conn app.Conn, err error) {
	code := "lookup_error"
	switch {
	case errors.Is(err, domain.ErrTimerNotRunning):
		code = "timer_not_running"
	case errors.Is(err, domain.ErrNoCurrentQuestion):
		code = "no_current_question"
	case errors.Is(err, domain.ErrAnswerNotFound):
		code = "answer_not_found"
	case errors.Is(err, domain.ErrMatchNotFound):
		code = "match_not_started"
	}
	conn.Send(errorMsg(code, err.Error()))
}
