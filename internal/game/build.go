package game

import (
	"github.com/jonboulle/clockwork"

	"biggame-service/internal/domain"
)

// BuildSession constructs a live session from an immutable match config. The
// config is validated first; nothing is built from a config that fails.
func BuildSession(id, name string, cfg domain.MatchConfig, clock clockwork.Clock) (*MatchSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := NewMatchSession(id, name, cfg.Intrigue, clock)
	for _, kind := range slotOrder {
		gc, ok := cfg.Games[kind]
		if !ok {
			continue
		}
		g := NewSubGame(kind, clock)
		for _, tc := range cfg.Teams {
			g.AddTeam(domain.NewTeam(tc.ID, tc.Name))
		}
		for rn := 1; rn <= gc.Rounds; rn++ {
			roundName := ""
			if len(gc.RoundNames) > 0 {
				roundName = gc.RoundNames[rn-1]
			}
			roundKind := domain.RoundNormal
			if len(gc.RoundKinds) > 0 {
				roundKind = gc.RoundKinds[rn-1]
			}
			questions := make([]*domain.Question, gc.Questions)
			for qn := 1; qn <= gc.Questions; qn++ {
				text := ""
				if len(gc.QuestionTexts) > 0 {
					text = gc.QuestionTexts[rn-1][qn-1]
				}
				questions[qn-1] = domain.NewQuestion(qn, gc.QuestionCost(kind, qn), text)
			}
			qt := gc.QuestionTime(defaultQuestionTime(kind, roundKind))
			g.AddRound(domain.NewRound(rn, roundName, roundKind, qt, questions))
		}
		s.AttachGame(g)
	}
	return s, nil
}

// RestoreSession rebuilds a session from its config plus the answer/appeal
// state persisted when it last ran, re-populating each team's answer index.
// Records that no longer resolve against the config are dropped; a stale
// record must not block the rest of the match from coming back.
func RestoreSession(id, name string, cfg domain.MatchConfig, snap *domain.MatchSnapshot, clock clockwork.Clock) (*MatchSession, error) {
	s, err := BuildSession(id, name, cfg, clock)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return s, nil
	}
	for _, rec := range snap.Answers {
		g, err := s.Game(rec.Game)
		if err != nil {
			continue
		}
		team, err := g.Team(rec.TeamID)
		if err != nil {
			continue
		}
		q, err := g.Question(rec.Round, rec.Question)
		if err != nil {
			continue
		}
		q.RestoreAnswer(team, &domain.Answer{
			TeamID:   rec.TeamID,
			Round:    rec.Round,
			Question: rec.Question,
			Blitz:    rec.Blitz,
			Text:     rec.Text,
			Score:    rec.Score,
			Status:   rec.Status,
		})
	}
	for _, rec := range snap.Appeals {
		g, err := s.Game(rec.Game)
		if err != nil {
			continue
		}
		q, err := g.Question(rec.Round, rec.Question)
		if err != nil {
			continue
		}
		q.RestoreAppeal(&domain.Appeal{
			TeamID:     rec.TeamID,
			Round:      rec.Round,
			Question:   rec.Question,
			Text:       rec.Text,
			AnswerText: rec.AnswerText,
			Comment:    rec.Comment,
			Status:     rec.Status,
		})
	}
	return s, nil
}
