package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/orchestra-ai/internal/api/hub"
	"github.com/dvloznov/orchestra-ai/internal/api/middleware"
	"github.com/dvloznov/orchestra-ai/internal/narrative"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Broadcaster pushes change notifications to connected clients.
type Broadcaster interface {
	Publish(msg hub.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(hub.Message) {}

// SessionHandler handles login state and the demo tour.
type SessionHandler struct {
	session *session.Session
	events  Broadcaster
	log     zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(s *session.Session, events Broadcaster, log zerolog.Logger) *SessionHandler {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &SessionHandler{
		session: s,
		events:  events,
		log:     log,
	}
}

// GetSession handles GET /api/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.session.State())
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode session.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := h.session.Login(req.Mode)
	if errors.Is(err, session.ErrUnknownMode) {
		middleware.WriteError(w, http.StatusBadRequest, "Mode must be one of guest, login, demo")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to log in")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.publish(state)
	middleware.WriteJSON(w, http.StatusOK, state)
}

// Logout handles POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := h.session.Logout()
	h.publish(state)
	middleware.WriteJSON(w, http.StatusOK, state)
}

// DismissWelcome handles POST /api/narrative/dismiss
func (h *SessionHandler) DismissWelcome(w http.ResponseWriter, r *http.Request) {
	state, advanced := h.session.DismissWelcome()
	if advanced {
		h.events.Publish(hub.Message{Type: hub.TypeNarrative, Data: state})
	}
	middleware.WriteJSON(w, http.StatusOK, narrativeResponse{
		Narrative: state,
		Advanced:  advanced,
		History:   h.session.NarrativeHistory(),
	})
}

// OpenView handles POST /api/views/{view}
func (h *SessionHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if view == "" {
		middleware.WriteError(w, http.StatusBadRequest, "View is required")
		return
	}

	state, advanced := h.session.OpenView(view)
	if advanced {
		h.events.Publish(hub.Message{Type: hub.TypeNarrative, Data: state})
	}
	middleware.WriteJSON(w, http.StatusOK, h.session.State())
}

func (h *SessionHandler) publish(state session.State) {
	h.events.Publish(hub.Message{Type: hub.TypeSession, Data: state})
}

type narrativeResponse struct {
	Narrative narrative.State   `json:"narrative"`
	Advanced  bool              `json:"advanced"`
	History   []narrative.State `json:"history"`
}
