package handlers

import (
	"net/http"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/api/hub"
	"github.com/dvloznov/orchestra-ai/internal/api/middleware"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the snapshot and its direct mutations.
type DashboardHandler struct {
	session *session.Session
	advisor advisor.Advisor
	events  Broadcaster
	log     zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(s *session.Session, adv advisor.Advisor, events Broadcaster, log zerolog.Logger) *DashboardHandler {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &DashboardHandler{
		session: s,
		advisor: adv,
		events:  events,
		log:     log,
	}
}

// DashboardResponse is everything the main view renders.
type DashboardResponse struct {
	snapshot.View
	Metrics domain.Metrics `json:"metrics"`
	Session session.State  `json:"session"`
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, DashboardResponse{
		View:    h.session.View(),
		Metrics: h.session.Metrics(),
		Session: h.session.State(),
	})
}

// GetMetrics handles GET /api/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.session.Metrics())
}

// ListTransactions handles GET /api/transactions
func (h *DashboardHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	transactions := []domain.Transaction{}
	for _, t := range h.session.View().Transactions {
		if t.Matches(query) {
			transactions = append(transactions, t)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// CategorizeTransactions handles POST /api/transactions/categorize
func (h *DashboardHandler) CategorizeTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.session.View().Transactions
	if len(txs) > advisor.MaxAnalyzeBatch {
		txs = txs[:advisor.MaxAnalyzeBatch]
	}

	results := h.advisor.AnalyzeTransactions(r.Context(), txs)
	updated := h.session.ApplyCategorization(results)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"analyzed": len(txs),
		"updated":  updated,
		"results":  results,
	})
}

// ListAlerts handles GET /api/alerts
func (h *DashboardHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.session.View().Alerts
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	open := 0
	for _, a := range alerts {
		if !a.Resolved {
			open++
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
		"open":   open,
	})
}

// ResolveAlert handles POST /api/alerts/{id}/resolve
func (h *DashboardHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	before := h.session.NarrativeState()
	changed := h.session.ResolveAlert(alertID)
	if after := h.session.NarrativeState(); after != before {
		h.events.Publish(hub.Message{Type: hub.TypeNarrative, Data: after})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alert_id": alertID,
		"changed":  changed,
		"metrics":  h.session.Metrics(),
	})
}

// ListIntegrations handles GET /api/integrations
func (h *DashboardHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations := h.session.Integrations()
	if integrations == nil {
		integrations = []domain.IntegrationStatus{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"integrations": integrations,
		"count":        len(integrations),
	})
}
