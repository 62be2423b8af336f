package domain

import (
	"fmt"
	"time"
)

// GameKind names one of the match formats.
type GameKind string

const (
	GameSequential GameKind = "sequential"
	GameMatrix     GameKind = "matrix"
	GameQuiz       GameKind = "quiz"
)

// TeamConfig identifies one competing team.
type TeamConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameConfig describes the round/question geometry of one format. Costs are
// uniform per round for the sequential format and scale with question
// position for matrix/quiz.
type GameConfig struct {
	Rounds          int         `json:"rounds"`
	Questions       int         `json:"questions"`
	Cost            int         `json:"cost"`
	QuestionSeconds int         `json:"questionSeconds,omitempty"`
	RoundNames      []string    `json:"roundNames,omitempty"`
	RoundKinds      []RoundKind `json:"roundKinds,omitempty"`
	QuestionTexts   [][]string  `json:"questionTexts,omitempty"`
}

// QuestionTime returns the configured per-question time, or fallback when the
// config leaves it unset.
func (g *GameConfig) QuestionTime(fallback time.Duration) time.Duration {
	if g.QuestionSeconds > 0 {
		return time.Duration(g.QuestionSeconds) * time.Second
	}
	return fallback
}

// QuestionCost returns the cost of the 1-based question in the given format.
func (g *GameConfig) QuestionCost(kind GameKind, question int) int {
	if kind == GameSequential {
		return g.Cost
	}
	return g.Cost * question
}

// MatchConfig is the immutable snapshot of match configuration handed to the
// engine by the authoring layer. Any subset of the three game slots may be
// present.
type MatchConfig struct {
	Teams    []TeamConfig             `json:"teams"`
	Games    map[GameKind]*GameConfig `json:"games"`
	Intrigue bool                     `json:"intrigue,omitempty"`
}

// Validate rejects malformed configuration before any session is registered.
// All failures wrap ErrBadConfig.
func (c *MatchConfig) Validate() error {
	if len(c.Games) == 0 {
		return fmt.Errorf("%w: no games configured", ErrBadConfig)
	}
	if len(c.Teams) == 0 {
		return fmt.Errorf("%w: no teams configured", ErrBadConfig)
	}
	seen := make(map[string]struct{}, len(c.Teams))
	for _, t := range c.Teams {
		if t.ID == "" {
			return fmt.Errorf("%w: team with empty id", ErrBadConfig)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate team id %q", ErrBadConfig, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	for kind, g := range c.Games {
		switch kind {
		case GameSequential, GameMatrix, GameQuiz:
		default:
			return fmt.Errorf("%w: unknown game kind %q", ErrBadConfig, kind)
		}
		if g == nil {
			return fmt.Errorf("%w: %s game config missing", ErrBadConfig, kind)
		}
		if g.Rounds < 1 || g.Questions < 1 {
			return fmt.Errorf("%w: %s game needs at least one round and question", ErrBadConfig, kind)
		}
		if g.Cost < 1 {
			return fmt.Errorf("%w: %s game needs a positive question cost", ErrBadConfig, kind)
		}
		if len(g.RoundNames) > 0 && len(g.RoundNames) != g.Rounds {
			return fmt.Errorf("%w: %s game has %d round names for %d rounds", ErrBadConfig, kind, len(g.RoundNames), g.Rounds)
		}
		if len(g.RoundKinds) > 0 {
			if kind != GameQuiz {
				return fmt.Errorf("%w: round kinds are quiz-only", ErrBadConfig)
			}
			if len(g.RoundKinds) != g.Rounds {
				return fmt.Errorf("%w: quiz game has %d round kinds for %d rounds", ErrBadConfig, len(g.RoundKinds), g.Rounds)
			}
		}
		if len(g.QuestionTexts) > 0 {
			if len(g.QuestionTexts) != g.Rounds {
				return fmt.Errorf("%w: %s game has question texts for %d of %d rounds", ErrBadConfig, kind, len(g.QuestionTexts), g.Rounds)
			}
			for i, row := range g.QuestionTexts {
				if len(row) != g.Questions {
					return fmt.Errorf("%w: %s game round %d has %d question texts for %d questions", ErrBadConfig, kind, i+1, len(row), g.Questions)
				}
			}
		}
	}
	return nil
}
