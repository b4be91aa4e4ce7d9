// Package session is the single state container of a dashboard session. It
// composes the snapshot store, the cashflow generator and the demo tour, and
// is the only entry point for mutations coming from the API or the CLI.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/metrics"
	"github.com/dvloznov/orchestra-ai/internal/narrative"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/rs/zerolog"
)

// Mode is how the user entered the dashboard.
type Mode string

const (
	ModeGuest Mode = "guest"
	ModeLogin Mode = "login"
	ModeDemo  Mode = "demo"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeGuest, ModeLogin, ModeDemo:
		return true
	}
	return false
}

// Views with session-level meaning. Opening the action items advances the
// tour.
const (
	ViewDashboard   = "dashboard"
	ViewActionItems = "action-items"
)

// Corrected values written to the designated transaction when the tour's
// alert is resolved.
const (
	CorrectedDescription = "Corrected: Vendor Refund"
	CorrectedAmount      = 0.0
)

// ErrUnknownMode is returned by Login for an unrecognized mode.
var ErrUnknownMode = errors.New("unknown session mode")

// State describes the session for clients.
type State struct {
	Authenticated bool            `json:"authenticated"`
	Mode          Mode            `json:"mode,omitempty"`
	DemoMode      bool            `json:"demoMode"`
	Narrative     narrative.State `json:"narrative"`
	ActiveView    string          `json:"activeView"`
}

// Session is safe for concurrent use. Composite operations hold the session
// lock and commit through a single store batch.
type Session struct {
	mu sync.Mutex

	store *snapshot.Store
	gen   *cashflow.Generator
	tour  *narrative.Controller
	log   zerolog.Logger

	baseline metrics.BurnPolicy
	scripted metrics.BurnPolicy

	authenticated bool
	mode          Mode
	demo          bool
	activeView    string
	scriptApplied bool
}

// Option configures a Session.
type Option func(*Session)

// WithScript overrides the records the demo tour is written around.
func WithScript(script narrative.Script) Option {
	return func(s *Session) {
		s.tour = narrative.NewFinished(script)
	}
}

// WithBurnPolicies overrides the burn policies used outside and inside the
// demo tour.
func WithBurnPolicies(baseline, scripted metrics.BurnPolicy) Option {
	return func(s *Session) {
		s.baseline = baseline
		s.scripted = scripted
	}
}

// New creates a logged-out session over store. The cashflow series starts
// in its crisis shape, matching the seeded high-severity alert.
func New(store *snapshot.Store, gen *cashflow.Generator, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		store: store,
		gen:   gen,
		tour: narrative.NewFinished(narrative.Script{
			AlertID:       snapshot.SeedCrisisAlertID,
			TransactionID: snapshot.SeedAnomalyTransactionID,
		}),
		log:        log.With().Str("component", "session").Logger(),
		baseline:   metrics.DefaultBaseline(),
		scripted:   metrics.DefaultNarrative(),
		activeView: ViewDashboard,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(store.View().Cashflow) == 0 {
		store.ReplaceCashflow(gen.Generate(true))
	}
	return s
}

// Store exposes the underlying snapshot store, for subscriptions.
func (s *Session) Store() *snapshot.Store {
	return s.store
}

// Login authenticates the session in the given mode. Demo mode restarts the
// tour at its first step and, unless the scripted resolution already
// happened, puts the cashflow back into its crisis shape. Any other mode
// leaves demo mode.
func (s *Session) Login(mode Mode) (State, error) {
	if !mode.Valid() {
		return State{}, fmt.Errorf("Login: %q: %w", mode, ErrUnknownMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.mode = mode
	s.activeView = ViewDashboard

	if mode == ModeDemo {
		s.demo = true
		s.tour = narrative.NewController(s.tour.Script())
		if !s.scriptApplied {
			series := s.gen.Generate(true)
			s.store.ReplaceCashflow(series)
		}
		s.log.Info().Str("mode", string(mode)).Msg("Entered demo mode")
		return s.stateLocked(), nil
	}

	s.leaveDemoLocked()
	s.log.Info().Str("mode", string(mode)).Msg("Session authenticated")
	return s.stateLocked(), nil
}

// Logout ends the session and leaves demo mode.
func (s *Session) Logout() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.mode = ""
	s.leaveDemoLocked()
	s.log.Info().Msg("Session logged out")
	return s.stateLocked()
}

func (s *Session) leaveDemoLocked() {
	s.demo = false
	s.tour.Fire(narrative.Event{Kind: narrative.EventLeaveDemo})
}

// DismissWelcome advances the tour past its welcome step.
func (s *Session) DismissWelcome() (narrative.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tour.Fire(narrative.Event{Kind: narrative.EventDismissWelcome})
}

// OpenView records the view the user navigated to. Opening the action items
// advances the tour. If the designated alert was already resolved when the
// tour reaches its resolve step, the tour finishes straight away.
func (s *Session) OpenView(view string) (narrative.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeView = view
	if view != ViewActionItems {
		return s.tour.State(), false
	}
	state, ok := s.tour.Fire(narrative.Event{Kind: narrative.EventOpenActionItems})
	if !ok || state != narrative.StateResolve {
		return state, ok
	}

	id := s.tour.Script().AlertID
	if !s.alertResolvedLocked(id) {
		return state, true
	}
	if next, fired := s.tour.Fire(narrative.Event{Kind: narrative.EventResolveAlert, AlertID: id}); fired {
		s.log.Info().Str("alert_id", id).Str("narrative", string(next)).Msg("Tour advanced")
		state = next
	}
	return state, true
}

func (s *Session) alertResolvedLocked(id string) bool {
	for _, a := range s.store.View().Alerts {
		if a.ID == id {
			return a.Resolved
		}
	}
	return false
}

// ResolveAlert marks the alert resolved and reports whether it changed.
//
// While demo mode is active, resolving the tour's designated alert also
// replaces the cashflow with its recovered shape and rewrites the designated
// transaction as corrected. That effect is applied at most once per session
// and commits together with the resolution.
func (s *Session) ResolveAlert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	script := s.tour.Script()
	scripted := s.demo && !s.scriptApplied && id == script.AlertID

	var recovered []domain.CashflowPoint
	if scripted {
		recovered = s.gen.Generate(false)
	}

	var changed, applied bool
	s.store.Batch(func(tx *snapshot.Tx) {
		changed = tx.ResolveAlert(id)
		if !changed || !scripted {
			return
		}
		tx.ReplaceCashflow(recovered)
		tx.CorrectTransaction(script.TransactionID, CorrectedDescription, CorrectedAmount)
		applied = true
	})
	if applied {
		s.scriptApplied = true
	}

	if !changed {
		return false
	}
	log := s.log.With().Str("alert_id", id).Logger()
	if applied {
		log.Info().Str("transaction_id", script.TransactionID).Msg("Applied scripted resolution")
	}
	if s.demo {
		if state, ok := s.tour.Fire(narrative.Event{Kind: narrative.EventResolveAlert, AlertID: id}); ok {
			log.Info().Str("narrative", string(state)).Msg("Tour advanced")
		}
	}
	log.Info().Msg("Alert resolved")
	return true
}

// ImportTransactions prepends batch and returns the alerts raised for it.
func (s *Session) ImportTransactions(batch []domain.Transaction) []domain.Alert {
	raised := s.store.ImportTransactions(batch)
	s.log.Info().Int("submitted", len(batch)).Int("alerts_raised", len(raised)).Msg("Transactions imported")
	return raised
}

// BeginSync marks the named integration as syncing.
func (s *Session) BeginSync(name string) bool {
	return s.store.SetIntegrationState(name, domain.IntegrationSyncing)
}

// CompleteSync marks the integration synced and imports what it delivered,
// as one update. It reports false when the integration is unknown.
func (s *Session) CompleteSync(name string, batch []domain.Transaction) ([]domain.Alert, bool) {
	var (
		raised []domain.Alert
		found  bool
	)
	s.store.Batch(func(tx *snapshot.Tx) {
		if found = tx.MarkIntegrationSynced(name); !found {
			return
		}
		raised = tx.ImportTransactions(batch)
	})
	if found {
		s.log.Info().Str("integration", name).Int("alerts_raised", len(raised)).Msg("Integration synced")
	}
	return raised, found
}

// FailSync marks the named integration as errored.
func (s *Session) FailSync(name string) bool {
	return s.store.SetIntegrationState(name, domain.IntegrationError)
}

// ApplyCategorization merges advisor results into the transactions.
func (s *Session) ApplyCategorization(results []domain.CategorizationResult) int {
	n := s.store.ApplyCategorization(results)
	s.log.Info().Int("results", len(results)).Int("updated", n).Msg("Categorization applied")
	return n
}

// ReplaceCashflow swaps the cashflow series.
func (s *Session) ReplaceCashflow(series []domain.CashflowPoint) {
	s.store.ReplaceCashflow(series)
}

// View returns a detached copy of the snapshot.
func (s *Session) View() snapshot.View {
	return s.store.View()
}

// Integrations returns the current integration statuses.
func (s *Session) Integrations() []domain.IntegrationStatus {
	return s.store.View().Integrations
}

// Metrics derives the headline figures from the current snapshot.
func (s *Session) Metrics() domain.Metrics {
	s.mu.Lock()
	policy := s.baseline
	if s.demo {
		policy = s.scripted
	}
	s.mu.Unlock()
	return metrics.Compute(s.store.View(), policy)
}

// DemoMode reports whether the scripted tour is active.
func (s *Session) DemoMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demo
}

// NarrativeState returns the current tour step.
func (s *Session) NarrativeState() narrative.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tour.State()
}

// NarrativeHistory returns the tour steps visited since demo mode was last
// entered.
func (s *Session) NarrativeHistory() []narrative.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tour.History()
}

// State returns the session description.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Authenticated: s.authenticated,
		Mode:          s.mode,
		DemoMode:      s.demo,
		Narrative:     s.tour.State(),
		ActiveView:    s.activeView,
	}
}
