package domain

// CashflowPoint is one period of the cashflow chart. A series is ordered
// chronologically; historical points come first, forecast points last.
type CashflowPoint struct {
	Month     string  `json:"month"`
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	Balance   float64 `json:"balance"`
	Projected bool    `json:"projected"`
}

// Severity ranks how urgently an alert needs attention.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Alert is a risk notification. Resolved goes from false to true once and
// never back.
type Alert struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Date     string   `json:"date"`
	Resolved bool     `json:"resolved"`
}

// IntegrationType is the kind of connected financial system.
type IntegrationType string

const (
	IntegrationBank   IntegrationType = "BANK"
	IntegrationERP    IntegrationType = "ERP"
	IntegrationStripe IntegrationType = "STRIPE"
)

// IntegrationState is the connection health of an integration.
type IntegrationState string

const (
	IntegrationConnected IntegrationState = "connected"
	IntegrationSyncing   IntegrationState = "syncing"
	IntegrationError     IntegrationState = "error"
)

// Valid reports whether s is a known integration state.
func (s IntegrationState) Valid() bool {
	switch s {
	case IntegrationConnected, IntegrationSyncing, IntegrationError:
		return true
	}
	return false
}

// JustNow is the display timestamp for anything that happened this instant.
const JustNow = "Just now"

// IntegrationStatus describes one connected data source, keyed by Name.
type IntegrationStatus struct {
	Name       string           `json:"name"`
	Type       IntegrationType  `json:"type"`
	LastSynced string           `json:"lastSynced"`
	Status     IntegrationState `json:"status"`
}

// Metrics are the headline numbers derived from the snapshot. They are
// never stored, always recomputed.
type Metrics struct {
	Balance     float64 `json:"balance"`
	MonthlyBurn float64 `json:"monthlyBurn"`
	Runway      float64 `json:"runway"`
}

// ActionType classifies a strategic recommendation.
type ActionType string

const (
	ActionSaving ActionType = "saving"
	ActionRisk   ActionType = "risk"
	ActionGrowth ActionType = "growth"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionSaving, ActionRisk, ActionGrowth:
		return true
	}
	return false
}

// StrategicAction is one recommendation produced by the advisor.
type StrategicAction struct {
	Action string     `json:"action"`
	Impact string     `json:"impact"`
	Type   ActionType `json:"type"`
}

// Forecast is the advisor's projection for a what-if scenario.
type Forecast struct {
	Explanation string          `json:"explanation"`
	Data        []CashflowPoint `json:"data"`
}
