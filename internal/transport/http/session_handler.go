package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"biggame-service/internal/app"
	"biggame-service/internal/domain"
)

// SessionHandler is the thin lifecycle surface consumed by the match
// authoring layer: create a session from config, restore one from storage,
// finalize one back to storage. Everything else in the match flows over the
// websocket.
type SessionHandler struct {
	service *app.GameService
}

func NewSessionHandler(service *app.GameService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	MatchID string             `json:"matchId"`
	Name    string             `json:"name"`
	Config  domain.MatchConfig `json:"config"`
}

type matchIDRequest struct {
	MatchID string `json:"matchId"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateSession(r.Context(), req.MatchID, req.Name, req.Config); err != nil {
		h.writeErr(w, err)
		return
	}
	log.Info().Str("match_id", req.MatchID).Msg("session created")
	w.WriteHeader(http.StatusCreated)
}

func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req matchIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := h.service.RestoreSession(r.Context(), req.MatchID); err != nil {
		h.writeErr(w, err)
		return
	}
	log.Info().Str("match_id", req.MatchID).Msg("session restored")
	w.WriteHeader(http.StatusCreated)
}

func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req matchIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	snap, err := h.service.FinalizeSession(r.Context(), req.MatchID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	log.Info().Str("match_id", req.MatchID).Int("answers", len(snap.Answers)).Msg("session finalized")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (h *SessionHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrMatchNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
