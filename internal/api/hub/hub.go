// Package hub pushes change notifications to dashboard clients over
// WebSocket. Messages are signals only; clients refetch what changed.
package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/olahol/melody"
	"github.com/rs/zerolog"
)

// Message types that are not snapshot events.
const (
	TypeSession   = "session_changed"
	TypeNarrative = "narrative_changed"
)

// Message is the JSON frame sent to every client.
type Message struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids,omitempty"`
	Data any      `json:"data,omitempty"`
}

// Hub fans messages out to all connected clients.
type Hub struct {
	m   *melody.Melody
	log zerolog.Logger
}

// New creates a hub with keep-alive pings every 30 seconds.
func New(log zerolog.Logger) *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 64 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &Hub{m: m, log: log.With().Str("component", "hub").Logger()}

	m.HandleConnect(func(s *melody.Session) {
		h.log.Debug().Str("remote_addr", s.Request.RemoteAddr).Msg("Client connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		h.log.Debug().Str("remote_addr", s.Request.RemoteAddr).Msg("Client disconnected")
	})
	m.HandleError(func(s *melody.Session, err error) {
		h.log.Warn().Err(err).Msg("WebSocket error")
	})

	return h
}

// ServeHTTP upgrades the request to a WebSocket connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		h.log.Error().Err(err).Msg("Failed to upgrade websocket")
	}
}

// Publish broadcasts msg to every client. With no clients it is a no-op.
func (h *Hub) Publish(msg Message) {
	if h.m.IsClosed() || h.m.Len() == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
		return
	}
	if err := h.m.Broadcast(data); err != nil {
		h.log.Warn().Err(err).Str("type", msg.Type).Msg("Broadcast failed")
	}
}

// OnSnapshotEvent forwards a committed store mutation. It has the signature
// snapshot.Store.Subscribe expects.
func (h *Hub) OnSnapshotEvent(ev snapshot.Event) {
	h.Publish(Message{Type: string(ev.Type), IDs: ev.IDs})
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	return h.m.Len()
}

// Close disconnects every client.
func (h *Hub) Close() error {
	return h.m.Close()
}
