package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/api/middleware"
	"github.com/dvloznov/orchestra-ai/internal/jobs"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the API is built from. Events, WebSocket and
// Archive are optional.
type Deps struct {
	Session   *session.Session
	Advisor   advisor.Advisor
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
	Events    Broadcaster
	WebSocket http.Handler
	Archive   ReportArchive
	Log       zerolog.Logger
}

// NewRouter wires every route behind the standard middleware chain.
func NewRouter(d Deps) http.Handler {
	sessionHandler := NewSessionHandler(d.Session, d.Events, d.Log)
	dashboardHandler := NewDashboardHandler(d.Session, d.Advisor, d.Events, d.Log)
	jobsHandler := NewJobsHandler(d.Session, d.Publisher, d.JobStore, d.Log)
	insightsHandler := NewInsightsHandler(d.Session, d.Advisor, d.Archive, d.Log)

	r := chi.NewRouter()
	r.Use(
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
		middleware.CORS,
		middleware.Auth,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if d.WebSocket != nil {
		r.Get("/ws", d.WebSocket.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", sessionHandler.GetSession)
		r.Post("/session/login", sessionHandler.Login)
		r.Post("/session/logout", sessionHandler.Logout)
		r.Post("/narrative/dismiss", sessionHandler.DismissWelcome)
		r.Post("/views/{view}", sessionHandler.OpenView)

		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/metrics", dashboardHandler.GetMetrics)
		r.Get("/transactions", dashboardHandler.ListTransactions)
		r.Post("/transactions/categorize", dashboardHandler.CategorizeTransactions)
		r.Get("/alerts", dashboardHandler.ListAlerts)
		r.Post("/alerts/{id}/resolve", dashboardHandler.ResolveAlert)
		r.Get("/integrations", dashboardHandler.ListIntegrations)

		r.Post("/integrations/{name}/sync", jobsHandler.SyncIntegration)
		r.Post("/uploads", jobsHandler.UploadFile)
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{id}", jobsHandler.GetJob)

		r.Get("/insights/summary", insightsHandler.GetSummary)
		r.Get("/insights/actions", insightsHandler.GetActions)
		r.Post("/reports/investor", insightsHandler.InvestorReport)
		r.Post("/forecast", insightsHandler.Forecast)
		r.Post("/chat", insightsHandler.Chat)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
