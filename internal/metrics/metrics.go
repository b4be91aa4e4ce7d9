// Package metrics derives balance, burn and runway from a snapshot.
//
// The monthly burn figure is a policy choice, not something computed from
// the ledger: a plain session uses a single baseline, while the scripted demo
// switches between two presets depending on whether a high-severity alert is
// still open.
package metrics

import (
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
)

// RunwaySentinel is reported when burn is zero or negative; treat it as
// effectively infinite.
const RunwaySentinel = 99.0

// Burn presets.
const (
	DefaultBaselineBurn  = 85000.0
	DefaultCrisisBurn    = 125000.0
	DefaultRecoveredBurn = 78000.0
)

// BurnPolicy selects the monthly burn for a snapshot.
type BurnPolicy interface {
	MonthlyBurn(alerts []domain.Alert) float64
}

// BaselinePolicy always reports the same burn.
type BaselinePolicy struct {
	Burn float64
}

// MonthlyBurn implements BurnPolicy.
func (p BaselinePolicy) MonthlyBurn([]domain.Alert) float64 {
	return p.Burn
}

// NarrativePolicy is used only while the scripted demo is running.
type NarrativePolicy struct {
	Crisis    float64
	Recovered float64
}

// MonthlyBurn implements BurnPolicy.
func (p NarrativePolicy) MonthlyBurn(alerts []domain.Alert) float64 {
	if HasOpenHighAlert(alerts) {
		return p.Crisis
	}
	return p.Recovered
}

// DefaultBaseline returns the burn policy of a regular session.
func DefaultBaseline() BaselinePolicy {
	return BaselinePolicy{Burn: DefaultBaselineBurn}
}

// DefaultNarrative returns the burn policy of the scripted demo.
func DefaultNarrative() NarrativePolicy {
	return NarrativePolicy{Crisis: DefaultCrisisBurn, Recovered: DefaultRecoveredBurn}
}

// HasOpenHighAlert reports whether any unresolved high-severity alert exists.
func HasOpenHighAlert(alerts []domain.Alert) bool {
	for _, a := range alerts {
		if !a.Resolved && a.Severity == domain.SeverityHigh {
			return true
		}
	}
	return false
}

// Runway divides balance by burn, returning RunwaySentinel when burn <= 0.
func Runway(balance, monthlyBurn float64) float64 {
	if monthlyBurn <= 0 {
		return RunwaySentinel
	}
	return balance / monthlyBurn
}

// Balance is the balance of the most recent cashflow point, or zero for an
// empty series.
func Balance(series []domain.CashflowPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Balance
}

// Compute derives the metrics of v under policy.
func Compute(v snapshot.View, policy BurnPolicy) domain.Metrics {
	balance := Balance(v.Cashflow)
	burn := policy.MonthlyBurn(v.Alerts)
	return domain.Metrics{
		Balance:     balance,
		MonthlyBurn: burn,
		Runway:      Runway(balance, burn),
	}
}
