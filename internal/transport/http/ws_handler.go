package http

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"biggame-service/internal/app"
)

// WSHandler upgrades client connections and feeds their frames to the
// dispatcher. Identity (match, role, team) comes from query parameters that
// an upstream layer has already authenticated; the handler only checks they
// are present.
type WSHandler struct {
	service    *app.GameService
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service:    service,
		dispatcher: NewDispatcher(service),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS handles one persistent connection for the lifetime of the socket.
// Frames from a single connection are dispatched in arrival order.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	caller := Caller{
		MatchID: query.Get("matchId"),
		Role:    app.Role(query.Get("role")),
		TeamID:  query.Get("teamId"),
		Name:    query.Get("name"),
	}
	if caller.MatchID == "" || (caller.Role != app.RoleModerator && caller.Role != app.RoleTeam) {
		http.Error(w, "missing matchId or role", http.StatusBadRequest)
		return
	}
	if caller.Role == app.RoleTeam && caller.TeamID == "" {
		http.Error(w, "missing teamId", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}

	conn := newWSConn(caller.TeamID, ws)
	go conn.writePump()

	registry := h.service.Registry()
	attached := registry.AddConn(caller.MatchID, caller.Role, conn)
	log.Info().
		Str("match_id", caller.MatchID).
		Str("role", string(caller.Role)).
		Str("conn_id", conn.ID()).
		Bool("attached", attached).
		Msg("ws connected")

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		h.dispatcher.Dispatch(caller, conn, raw)
	}

	if attached {
		registry.RemoveConn(caller.MatchID, caller.Role, conn.ID())
	}
	conn.close()
	log.Info().Str("conn_id", conn.ID()).Msg("ws disconnected")
}

// wsConn adapts one websocket to the registry's Conn contract. Outbound
// messages go through a buffered channel drained by a single writer
// goroutine, so broadcasts never write to the socket concurrently and never
// block the dispatcher.
type wsConn struct {
	id        string
	teamID    string
	ws        *websocket.Conn
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(teamID string, ws *websocket.Conn) *wsConn {
	return &wsConn{
		id:     uuid.New().String(),
		teamID: teamID,
		ws:     ws,
		send:   make(chan any, 32),
		done:   make(chan struct{}),
	}
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) TeamID() string { return c.teamID }

// Send enqueues without blocking; a full buffer drops the message rather
// than stalling the match.
func (c *wsConn) Send(msg any) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		log.Warn().Str("conn_id", c.id).Msg("send buffer full, dropping message")
	}
}

func (c *wsConn) writePump() {
	defer c.ws.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.ws.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("conn_id", c.id).Msg("ws write failed")
				return
			}
		}
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
