package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/api/middleware"
	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/rs/zerolog"
)

// reportTrendPoints is how much recent cashflow an investor report sees.
const reportTrendPoints = 3

// ReportArchive stores generated investor reports.
type ReportArchive interface {
	Save(ctx context.Context, report string, at time.Time) (string, error)
}

// InsightsHandler serves everything produced by the advisor.
type InsightsHandler struct {
	session *session.Session
	advisor advisor.Advisor
	archive ReportArchive
	now     func() time.Time
	log     zerolog.Logger
}

// NewInsightsHandler creates a new insights handler. archive may be nil.
func NewInsightsHandler(s *session.Session, adv advisor.Advisor, archive ReportArchive, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		session: s,
		advisor: adv,
		archive: archive,
		now:     time.Now,
		log:     log,
	}
}

// GetSummary handles GET /api/insights/summary
func (h *InsightsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.advisor.ExecutiveSummary(r.Context(), h.session.Metrics(), h.session.View().Alerts)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// GetActions handles GET /api/insights/actions
func (h *InsightsHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	actions := h.advisor.StrategicActions(r.Context(), h.session.View().Transactions)
	if actions == nil {
		actions = []domain.StrategicAction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"actions": actions,
		"count":   len(actions),
	})
}

// InvestorReport handles POST /api/reports/investor
func (h *InsightsHandler) InvestorReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recent := cashflow.Recent(h.session.View().Cashflow, reportTrendPoints)
	report := h.advisor.InvestorReport(ctx, h.session.Metrics(), recent)

	resp := map[string]string{"report": report}
	if h.archive != nil && report != advisor.ReportFailed && report != advisor.ReportEmpty {
		uri, err := h.archive.Save(ctx, report, h.now())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to archive investor report")
		} else {
			resp["uri"] = uri
		}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Forecast handles POST /api/forecast
//
// The response data is the historical series followed by the projected
// points. The snapshot is not modified.
func (h *InsightsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario string `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Scenario) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Scenario is required")
		return
	}

	history := cashflow.History(h.session.View().Cashflow)
	forecast := h.advisor.ScenarioForecast(r.Context(), history, req.Scenario)

	middleware.WriteJSON(w, http.StatusOK, domain.Forecast{
		Explanation: forecast.Explanation,
		Data:        cashflow.Extend(history, forecast.Data),
	})
}

// Chat handles POST /api/chat
func (h *InsightsHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	txs := h.session.View().Transactions
	if len(txs) > advisor.MaxChatTxs {
		txs = txs[:advisor.MaxChatTxs]
	}
	reply := h.advisor.Chat(r.Context(), req.Message, advisor.ChatContext{
		Metrics:            h.session.Metrics(),
		RecentTransactions: txs,
	})

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
