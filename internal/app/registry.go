package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"biggame-service/internal/game"
)

// Role classifies a connection. Access control happens upstream; the engine
// trusts the role it is handed.
type Role string

const (
	RoleModerator Role = "moderator"
	RoleTeam      Role = "team"
)

// Conn is an opaque outbound handle to one client connection. The transport
// owns the socket lifecycle; Send must never block the caller. TeamID is
// empty for moderator connections.
type Conn interface {
	ID() string
	TeamID() string
	Send(msg any)
}

type entry struct {
	session    *game.MatchSession
	moderators map[string]Conn
	teams      map[string]Conn
	lastActive time.Time
}

// SessionRegistry is the process-wide map from match id to live session plus
// the per-match moderator/team connection sets. It is an explicit, injectable
// object constructed once at startup, with all mutations synchronized, and it
// owns idle-session eviction.
type SessionRegistry struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	ttl     time.Duration
	matches map[string]*entry
}

func NewSessionRegistry(clock clockwork.Clock, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		clock:   clock,
		ttl:     ttl,
		matches: make(map[string]*entry),
	}
}

// Register installs a live session. Re-registering a match id replaces the
// previous session but keeps any connections already attached to it.
func (r *SessionRegistry) Register(session *game.MatchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.matches[session.ID()]; ok {
		e.session = session
		e.lastActive = r.clock.Now()
		return
	}
	r.matches[session.ID()] = &entry{
		session:    session,
		moderators: make(map[string]Conn),
		teams:      make(map[string]Conn),
		lastActive: r.clock.Now(),
	}
	log.Info().Str("match_id", session.ID()).Msg("session registered")
}

// Lookup resolves a live session and refreshes its idle deadline.
func (r *SessionRegistry) Lookup(matchID string) (*game.MatchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[matchID]
	if !ok {
		return nil, false
	}
	e.lastActive = r.clock.Now()
	return e.session, true
}

// Remove deletes the registry entry and returns its session. Removal happens
// before any persistence of final state, so no new message can resolve to a
// match that is being torn down.
func (r *SessionRegistry) Remove(matchID string) (*game.MatchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[matchID]
	if !ok {
		return nil, false
	}
	delete(r.matches, matchID)
	log.Info().Str("match_id", matchID).Msg("session removed")
	return e.session, true
}

// AddConn attaches a connection handle to a match's role set.
func (r *SessionRegistry) AddConn(matchID string, role Role, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[matchID]
	if !ok {
		return false
	}
	set := e.teams
	if role == RoleModerator {
		set = e.moderators
	}
	set[c.ID()] = c
	e.lastActive = r.clock.Now()
	log.Debug().
		Str("match_id", matchID).
		Str("role", string(role)).
		Str("conn_id", c.ID()).
		Msg("connection attached")
	return true
}

// RemoveConn detaches a connection handle; the transport reports disconnects.
func (r *SessionRegistry) RemoveConn(matchID string, role Role, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[matchID]
	if !ok {
		return
	}
	if role == RoleModerator {
		delete(e.moderators, connID)
	} else {
		delete(e.teams, connID)
	}
}

// BroadcastToTeams fans a message out to every team connection of a match.
func (r *SessionRegistry) BroadcastToTeams(matchID string, msg any) {
	r.sendToSet(matchID, RoleTeam, msg)
}

// BroadcastToModerators fans a message out to every moderator connection.
func (r *SessionRegistry) BroadcastToModerators(matchID string, msg any) {
	r.sendToSet(matchID, RoleModerator, msg)
}

func (r *SessionRegistry) sendToSet(matchID string, role Role, msg any) {
	r.mu.RLock()
	e, ok := r.matches[matchID]
	if !ok {
		r.mu.RUnlock()
		return
	}
	set := e.teams
	if role == RoleModerator {
		set = e.moderators
	}
	targets := make([]Conn, 0, len(set))
	for _, c := range set {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Send(msg)
	}
}

// SendToTeams fans out per-connection messages built from each connection's
// team identity. Intrigue mode uses this to show every team only its own
// scores.
func (r *SessionRegistry) SendToTeams(matchID string, build func(teamID string) any) {
	r.mu.RLock()
	e, ok := r.matches[matchID]
	if !ok {
		r.mu.RUnlock()
		return
	}
	targets := make([]Conn, 0, len(e.teams))
	for _, c := range e.teams {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if msg := build(c.TeamID()); msg != nil {
			c.Send(msg)
		}
	}
}

// Touch refreshes a match's idle deadline after mutating traffic.
func (r *SessionRegistry) Touch(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.matches[matchID]; ok {
		e.lastActive = r.clock.Now()
	}
}

// expired collects and removes matches idle past the TTL. Entries leave the
// map before their sessions are handed back, preserving the eviction order
// contract.
func (r *SessionRegistry) expired() []*game.MatchSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.clock.Now().Add(-r.ttl)
	var out []*game.MatchSession
	for id, e := range r.matches {
		if e.lastActive.Before(cutoff) {
			delete(r.matches, id)
			out = append(out, e.session)
			log.Info().Str("match_id", id).Msg("session expired")
		}
	}
	return out
}

// RunEvictor sweeps for idle sessions until ctx is done, invoking onEvict for
// each evicted session outside the registry lock.
func (r *SessionRegistry) RunEvictor(ctx context.Context, interval time.Duration, onEvict func(*game.MatchSession)) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			for _, session := range r.expired() {
				onEvict(session)
			}
		}
	}
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
