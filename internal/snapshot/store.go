// Package snapshot holds the in-memory financial snapshot of a dashboard
// session: transactions, the cashflow series, alerts and integrations.
//
// All mutation goes through the named operations on Store or, for composite
// updates, on the Tx handed out by Store.Batch. A mutation is fully applied
// before any reader can observe it.
package snapshot

import (
	"fmt"
	"math"
	"sync"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/money"
	"github.com/google/uuid"
)

// EventType names a committed mutation.
type EventType string

const (
	EventAlertResolved           EventType = "alert_resolved"
	EventTransactionsImported    EventType = "transactions_imported"
	EventTransactionsCategorized EventType = "transactions_categorized"
	EventTransactionCorrected    EventType = "transaction_corrected"
	EventCashflowReplaced        EventType = "cashflow_replaced"
	EventIntegrationUpdated      EventType = "integration_updated"
)

// Event is delivered to subscribers after a mutation commits.
type Event struct {
	Type EventType `json:"type"`
	IDs  []string  `json:"ids,omitempty"`
}

// View is a detached copy of the snapshot. Callers may modify it freely.
type View struct {
	Transactions []domain.Transaction       `json:"transactions"`
	Cashflow     []domain.CashflowPoint     `json:"cashflow"`
	Alerts       []domain.Alert             `json:"alerts"`
	Integrations []domain.IntegrationStatus `json:"integrations"`
}

// Clone deep-copies v.
func (v View) Clone() View {
	out := View{
		Transactions: make([]domain.Transaction, len(v.Transactions)),
		Cashflow:     append([]domain.CashflowPoint(nil), v.Cashflow...),
		Alerts:       append([]domain.Alert(nil), v.Alerts...),
		Integrations: append([]domain.IntegrationStatus(nil), v.Integrations...),
	}
	for i, t := range v.Transactions {
		out.Transactions[i] = t.Clone()
	}
	return out
}

// Store owns the snapshot collections. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state View
	newID func() string

	subMu sync.RWMutex
	subs  []func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how alert ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial View, opts ...Option) *Store {
	s := &Store{
		state: initial.Clone(),
		newID: func() string { return "alert_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every committed mutation.
// Callbacks run outside the store lock, on the mutating goroutine.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// View returns a detached copy of the current snapshot.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Batch runs fn with exclusive access to the snapshot. Every mutation made
// through tx becomes visible at once when fn returns.
func (s *Store) Batch(fn func(tx *Tx)) {
	s.mu.Lock()
	tx := &Tx{state: &s.state, newID: s.newID}
	fn(tx)
	events := tx.events
	s.mu.Unlock()

	s.publish(events)
}

func (s *Store) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	s.subMu.RLock()
	subs := append([]func(Event){}, s.subs...)
	s.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// ResolveAlert marks the alert resolved. It reports whether anything changed.
func (s *Store) ResolveAlert(id string) bool {
	var changed bool
	s.Batch(func(tx *Tx) { changed = tx.ResolveAlert(id) })
	return changed
}

// ImportTransactions prepends batch and returns the alerts raised for
// anomalous entries.
func (s *Store) ImportTransactions(batch []domain.Transaction) []domain.Alert {
	var raised []domain.Alert
	s.Batch(func(tx *Tx) { raised = tx.ImportTransactions(batch) })
	return raised
}

// ApplyCategorization merges advisor results into matching transactions and
// returns how many were updated.
func (s *Store) ApplyCategorization(results []domain.CategorizationResult) int {
	var n int
	s.Batch(func(tx *Tx) { n = tx.ApplyCategorization(results) })
	return n
}

// ReplaceCashflow swaps the whole cashflow series.
func (s *Store) ReplaceCashflow(series []domain.CashflowPoint) {
	s.Batch(func(tx *Tx) { tx.ReplaceCashflow(series) })
}

// CorrectTransaction rewrites a transaction as reviewed and non-anomalous.
func (s *Store) CorrectTransaction(id, description string, amount float64) bool {
	var changed bool
	s.Batch(func(tx *Tx) { changed = tx.CorrectTransaction(id, description, amount) })
	return changed
}

// SetIntegrationState updates an integration's connection state.
func (s *Store) SetIntegrationState(name string, state domain.IntegrationState) bool {
	var changed bool
	s.Batch(func(tx *Tx) { changed = tx.SetIntegrationState(name, state) })
	return changed
}

// MarkIntegrationSynced records a successful sync for the named integration.
func (s *Store) MarkIntegrationSynced(name string) bool {
	var changed bool
	s.Batch(func(tx *Tx) { changed = tx.MarkIntegrationSynced(name) })
	return changed
}

// Tx exposes the snapshot operations inside Store.Batch. It must not be
// retained after the batch function returns.
type Tx struct {
	state  *View
	newID  func() string
	events []Event
}

func (tx *Tx) emit(t EventType, ids ...string) {
	tx.events = append(tx.events, Event{Type: t, IDs: ids})
}

// ResolveAlert sets resolved=true on the alert with this id. Unknown or
// already resolved ids are a no-op.
func (tx *Tx) ResolveAlert(id string) bool {
	for i := range tx.state.Alerts {
		a := &tx.state.Alerts[i]
		if a.ID != id {
			continue
		}
		if a.Resolved {
			return false
		}
		a.Resolved = true
		tx.emit(EventAlertResolved, id)
		return true
	}
	return false
}

// ImportTransactions prepends batch in its given order, most recent first.
// Entries whose id already exists are skipped. Every accepted entry flagged
// as an anomaly raises one unresolved medium-severity alert.
func (tx *Tx) ImportTransactions(batch []domain.Transaction) []domain.Alert {
	seen := make(map[string]bool, len(tx.state.Transactions)+len(batch))
	for _, t := range tx.state.Transactions {
		seen[t.ID] = true
	}

	accepted := make([]domain.Transaction, 0, len(batch))
	var raised []domain.Alert
	for _, t := range batch {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		accepted = append(accepted, t.Clone())

		if t.IsAnomaly {
			raised = append(raised, domain.Alert{
				ID:       tx.newID(),
				Severity: domain.SeverityMedium,
				Message:  AnomalyMessage(t),
				Date:     domain.JustNow,
			})
		}
	}
	if len(accepted) == 0 {
		return nil
	}

	tx.state.Transactions = append(accepted, tx.state.Transactions...)
	if len(raised) > 0 {
		tx.state.Alerts = append(append([]domain.Alert(nil), raised...), tx.state.Alerts...)
	}

	ids := make([]string, len(accepted))
	for i, t := range accepted {
		ids[i] = t.ID
	}
	tx.emit(EventTransactionsImported, ids...)
	return raised
}

// AnomalyMessage is the alert text raised for an anomalous transaction.
func AnomalyMessage(t domain.Transaction) string {
	return fmt.Sprintf("New anomaly detected: %s ($%s)", t.Description, money.Abs(t.Amount))
}

// ApplyCategorization merges category, risk and anomaly fields by id and
// marks each matched transaction completed. Unknown ids are ignored.
func (tx *Tx) ApplyCategorization(results []domain.CategorizationResult) int {
	index := make(map[string]int, len(tx.state.Transactions))
	for i, t := range tx.state.Transactions {
		index[t.ID] = i
	}

	var ids []string
	for _, r := range results {
		i, ok := index[r.ID]
		if !ok {
			continue
		}
		t := &tx.state.Transactions[i]
		if r.Category != "" {
			t.Category = r.Category
		}
		score := clampScore(r.RiskScore)
		t.RiskScore = &score
		t.RiskReason = r.RiskReason
		t.IsAnomaly = r.IsAnomaly
		t.Status = domain.StatusCompleted
		ids = append(ids, r.ID)
	}
	if len(ids) > 0 {
		tx.emit(EventTransactionsCategorized, ids...)
	}
	return len(ids)
}

func clampScore(v int) int {
	return int(math.Max(0, math.Min(100, float64(v))))
}

// ReplaceCashflow swaps the full series for a copy of series.
func (tx *Tx) ReplaceCashflow(series []domain.CashflowPoint) {
	tx.state.Cashflow = append([]domain.CashflowPoint(nil), series...)
	tx.emit(EventCashflowReplaced)
}

// CorrectTransaction rewrites description and amount, clears the anomaly
// flag and marks the transaction completed.
func (tx *Tx) CorrectTransaction(id, description string, amount float64) bool {
	for i := range tx.state.Transactions {
		t := &tx.state.Transactions[i]
		if t.ID != id {
			continue
		}
		t.Description = description
		t.Amount = amount
		t.IsAnomaly = false
		t.Status = domain.StatusCompleted
		tx.emit(EventTransactionCorrected, id)
		return true
	}
	return false
}

// SetIntegrationState changes the connection state of the named integration.
func (tx *Tx) SetIntegrationState(name string, state domain.IntegrationState) bool {
	if !state.Valid() {
		return false
	}
	for i := range tx.state.Integrations {
		in := &tx.state.Integrations[i]
		if in.Name != name {
			continue
		}
		in.Status = state
		tx.emit(EventIntegrationUpdated, name)
		return true
	}
	return false
}

// MarkIntegrationSynced sets the integration connected and synced just now.
func (tx *Tx) MarkIntegrationSynced(name string) bool {
	for i := range tx.state.Integrations {
		in := &tx.state.Integrations[i]
		if in.Name != name {
			continue
		}
		in.Status = domain.IntegrationConnected
		in.LastSynced = domain.JustNow
		tx.emit(EventIntegrationUpdated, name)
		return true
	}
	return false
}

// Integration looks up an integration by name.
func (v View) Integration(name string) (domain.IntegrationStatus, bool) {
	for _, in := range v.Integrations {
		if in.Name == name {
			return in, true
		}
	}
	return domain.IntegrationStatus{}, false
}
