package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/api/hub"
	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/jobs"
	"github.com/dvloznov/orchestra-ai/internal/jobs/inmemory"
	"github.com/dvloznov/orchestra-ai/internal/narrative"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBroadcaster records every published message.
type MockBroadcaster struct {
	mu       sync.Mutex
	messages []hub.Message
}

func (m *MockBroadcaster) Publish(msg hub.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MockBroadcaster) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.messages {
		out = append(out, msg.Type)
	}
	return out
}

// MockArchive is a mock implementation of ReportArchive for testing
type MockArchive struct {
	SaveFunc func(ctx context.Context, report string, at time.Time) (string, error)
}

func (m *MockArchive) Save(ctx context.Context, report string, at time.Time) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, report, at)
	}
	return "gs://bucket/reports/x.txt", nil
}

type testServer struct {
	handler  http.Handler
	session  *session.Session
	jobStore *inmemory.Store
	events   *MockBroadcaster
}

func newTestServer(t *testing.T, archive ReportArchive) *testServer {
	t.Helper()
	gen := cashflow.NewGenerator(7)
	sess := session.New(snapshot.NewStore(snapshot.Seed()), gen, zerolog.Nop())

	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, store)
	t.Cleanup(func() { queue.Close() })

	events := &MockBroadcaster{}
	d := Deps{
		Session:   sess,
		Advisor:   advisor.Fallback{},
		Publisher: queue,
		JobStore:  store,
		Events:    events,
		Log:       zerolog.Nop(),
	}
	if archive != nil {
		d.Archive = archive
	}

	return &testServer{
		handler:  NewRouter(d),
		session:  sess,
		jobStore: store,
		events:   events,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantDemo   bool
	}{
		{"guest", map[string]string{"mode": "guest"}, http.StatusOK, false},
		{"demo", map[string]string{"mode": "demo"}, http.StatusOK, true},
		{"unknown mode", map[string]string{"mode": "admin"}, http.StatusBadRequest, false},
		{"invalid body", "not-an-object", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			rec := s.do(t, http.MethodPost, "/api/session/login", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var state session.State
			decode(t, rec, &state)
			assert.True(t, state.Authenticated)
			assert.Equal(t, tt.wantDemo, state.DemoMode)
			assert.Contains(t, s.events.Types(), hub.TypeSession)
		})
	}
}

func TestDemoTourOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/session/login", map[string]string{"mode": "demo"}).Code)

	var m domain.Metrics
	decode(t, s.do(t, http.MethodGet, "/api/metrics", nil), &m)
	assert.Equal(t, 125000.0, m.MonthlyBurn)

	var nr narrativeResponse
	decode(t, s.do(t, http.MethodPost, "/api/narrative/dismiss", nil), &nr)
	assert.Equal(t, narrative.StateAction, nr.Narrative)
	assert.True(t, nr.Advanced)

	var state session.State
	decode(t, s.do(t, http.MethodPost, "/api/views/action-items", nil), &state)
	assert.Equal(t, narrative.StateResolve, state.Narrative)
	assert.Equal(t, "action-items", state.ActiveView)

	rec := s.do(t, http.MethodPost, "/api/alerts/a1/resolve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved struct {
		Changed bool           `json:"changed"`
		Metrics domain.Metrics `json:"metrics"`
	}
	decode(t, rec, &resolved)
	assert.True(t, resolved.Changed)
	assert.Equal(t, 78000.0, resolved.Metrics.MonthlyBurn)

	assert.Equal(t, narrative.StateDone, s.session.NarrativeState())

	var dash DashboardResponse
	decode(t, s.do(t, http.MethodGet, "/api/dashboard", nil), &dash)
	for _, tx := range dash.Transactions {
		if tx.ID == snapshot.SeedAnomalyTransactionID {
			assert.Equal(t, session.CorrectedDescription, tx.Description)
			assert.False(t, tx.IsAnomaly)
		}
	}
	assert.Equal(t, narrative.StateDone, dash.Session.Narrative)

	narrativeEvents := 0
	for _, typ := range s.events.Types() {
		if typ == hub.TypeNarrative {
			narrativeEvents++
		}
	}
	assert.Equal(t, 3, narrativeEvents)
}

func TestResolveAlert(t *testing.T) {
	s := newTestServer(t, nil)

	var resp struct {
		Changed bool `json:"changed"`
	}

	// unknown ids are a silent no-op
	rec := s.do(t, http.MethodPost, "/api/alerts/missing/resolve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.False(t, resp.Changed)

	decode(t, s.do(t, http.MethodPost, "/api/alerts/a3/resolve", nil), &resp)
	assert.False(t, resp.Changed)

	decode(t, s.do(t, http.MethodPost, "/api/alerts/a2/resolve", nil), &resp)
	assert.True(t, resp.Changed)

	var alerts struct {
		Count int `json:"count"`
		Open  int `json:"open"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/alerts", nil), &alerts)
	assert.Equal(t, 3, alerts.Count)
	assert.Equal(t, 1, alerts.Open)
}

func TestListTransactions(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"", 8},
		{"?q=revenue", 2},
		{"?q=AWS", 1},
		{"?q=nothing-matches", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var resp struct {
				Transactions []domain.Transaction `json:"transactions"`
				Count        int                  `json:"count"`
			}
			decode(t, s.do(t, http.MethodGet, "/api/transactions"+tt.query, nil), &resp)
			assert.Equal(t, tt.want, resp.Count)
			assert.Len(t, resp.Transactions, tt.want)
		})
	}
}

func TestCategorizeTransactions(t *testing.T) {
	s := newTestServer(t, nil)

	var resp struct {
		Analyzed int `json:"analyzed"`
		Updated  int `json:"updated"`
	}
	rec := s.do(t, http.MethodPost, "/api/transactions/categorize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 8, resp.Analyzed)
	assert.Equal(t, 8, resp.Updated)

	for _, tx := range s.session.View().Transactions {
		assert.Equal(t, advisor.FallbackCategory, tx.Category)
	}
}

func TestSyncIntegration(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/integrations/NetSuite%20ERP/sync", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job jobs.SyncIntegrationJob
	decode(t, rec, &job)
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, "NetSuite ERP", job.Integration)
	assert.Equal(t, jobs.JobStatusPending, job.Status)

	rec = s.do(t, http.MethodGet, "/api/jobs/"+job.JobID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/integrations/Nope/sync", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFile(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := s.do(t, http.MethodPost, "/api/uploads", map[string]interface{}{"filename": "oct.pdf", "size": 2048})
		require.Equal(t, http.StatusAccepted, rec.Code)

		var job jobs.UploadFileJob
		decode(t, rec, &job)
		assert.Equal(t, "oct.pdf", job.Filename)
		assert.Equal(t, int64(2048), job.Size)
	})

	t.Run("multipart", func(t *testing.T) {
		s := newTestServer(t, nil)

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "statement.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("date,amount\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)

		var job jobs.UploadFileJob
		decode(t, rec, &job)
		assert.Equal(t, "statement.csv", job.Filename)
	})

	t.Run("missing filename", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := s.do(t, http.MethodPost, "/api/uploads", map[string]string{"filename": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobs(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/jobs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.do(t, http.MethodPost, "/api/integrations/Brex%20Cards/sync", nil)
	s.do(t, http.MethodPost, "/api/uploads", map[string]string{"filename": "a.pdf"})

	var resp struct {
		Count int `json:"count"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/jobs", nil), &resp)
	assert.Equal(t, 2, resp.Count)

	decode(t, s.do(t, http.MethodGet, "/api/jobs?type=upload_file", nil), &resp)
	assert.Equal(t, 1, resp.Count)

	decode(t, s.do(t, http.MethodGet, "/api/jobs?limit=1", nil), &resp)
	assert.Equal(t, 1, resp.Count)
}

func TestInsights(t *testing.T) {
	s := newTestServer(t, nil)

	var summary map[string]string
	decode(t, s.do(t, http.MethodGet, "/api/insights/summary", nil), &summary)
	assert.Equal(t, advisor.FallbackSummary, summary["summary"])

	var actions struct {
		Actions []domain.StrategicAction `json:"actions"`
		Count   int                      `json:"count"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/insights/actions", nil), &actions)
	assert.Equal(t, 3, actions.Count)
}

func TestInvestorReport(t *testing.T) {
	t.Run("archived", func(t *testing.T) {
		var saved string
		s := newTestServer(t, &MockArchive{SaveFunc: func(_ context.Context, report string, _ time.Time) (string, error) {
			saved = report
			return "gs://reports/r.txt", nil
		}})

		var resp map[string]string
		decode(t, s.do(t, http.MethodPost, "/api/reports/investor", nil), &resp)
		assert.Contains(t, resp["report"], "Subject:")
		assert.Equal(t, "gs://reports/r.txt", resp["uri"])
		assert.Equal(t, resp["report"], saved)
	})

	t.Run("archive failure still returns report", func(t *testing.T) {
		s := newTestServer(t, &MockArchive{SaveFunc: func(context.Context, string, time.Time) (string, error) {
			return "", errors.New("bucket missing")
		}})

		rec := s.do(t, http.MethodPost, "/api/reports/investor", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp["report"])
		assert.Empty(t, resp["uri"])
	})
}

func TestForecast(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/forecast", map[string]string{"scenario": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/forecast", map[string]string{"scenario": "Hire 2 engineers"})
	require.Equal(t, http.StatusOK, rec.Code)

	var f domain.Forecast
	decode(t, rec, &f)
	assert.Equal(t, advisor.FallbackForecastLabel, f.Explanation)
	assert.Len(t, f.Data, cashflow.HistoryDays+1)
	for _, p := range f.Data {
		assert.False(t, p.Projected)
	}
}

func TestChat(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decode(t, s.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "What is our runway?"}), &resp)
	assert.Contains(t, resp["reply"], "What is our runway?")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodOptions, "/api/chat", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
