// Package cashflow produces the synthetic daily cashflow series shown on the
// dashboard chart.
package cashflow

import (
	"math"
	"math/rand"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/domain"
)

// Series shape.
const (
	HistoryDays    = 90
	ProjectionDays = 14

	StartingBalance = 1240000.0
	PayrollOutflow  = 40000.0
	SalesInflow     = 25000.0
	NoiseAmplitude  = 15000.0

	CrisisDailyBurn = 4500.0
	NormalDailyBurn = 2000.0
)

// Generator builds cashflow series. Rand and Now are injectable so tests can
// produce deterministic output.
type Generator struct {
	Rand *rand.Rand
	Now  func() time.Time
}

// NewGenerator returns a generator seeded with seed using the wall clock.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Rand: rand.New(rand.NewSource(seed)),
		Now:  time.Now,
	}
}

// Generate returns HistoryDays+1 historical points ending today, followed by
// ProjectionDays projected points. In crisis mode the projection burns cash
// faster.
func (g *Generator) Generate(crisis bool) []domain.CashflowPoint {
	today := g.Now()
	balance := StartingBalance
	series := make([]domain.CashflowPoint, 0, HistoryDays+1+ProjectionDays)

	for i := HistoryDays; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		volatility := (g.Rand.Float64() - 0.4) * NoiseAmplitude
		if i%30 == 0 {
			balance -= PayrollOutflow
		}
		if i%15 == 0 {
			balance += SalesInflow
		}
		balance += volatility

		series = append(series, domain.CashflowPoint{
			Month:    label(day),
			Income:   math.Max(volatility, 0),
			Expenses: math.Max(-volatility, 0),
			Balance:  math.Floor(balance),
		})
	}

	burn := NormalDailyBurn
	if crisis {
		burn = CrisisDailyBurn
	}
	for i := 1; i <= ProjectionDays; i++ {
		day := today.AddDate(0, 0, i)
		balance -= burn
		series = append(series, domain.CashflowPoint{
			Month:     label(day),
			Expenses:  burn,
			Balance:   math.Floor(balance),
			Projected: true,
		})
	}

	return series
}

func label(t time.Time) string {
	return t.Format("Jan 2")
}

// History returns every historical (non-projected) point of series.
func History(series []domain.CashflowPoint) []domain.CashflowPoint {
	var hist []domain.CashflowPoint
	for _, p := range series {
		if !p.Projected {
			hist = append(hist, p)
		}
	}
	return hist
}

// Recent returns the last n historical (non-projected) points of series.
func Recent(series []domain.CashflowPoint, n int) []domain.CashflowPoint {
	hist := History(series)
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	return append([]domain.CashflowPoint(nil), hist...)
}

// Extend appends the projected points of forecast to the historical part of
// history, replacing any previous projection.
func Extend(history, forecast []domain.CashflowPoint) []domain.CashflowPoint {
	out := make([]domain.CashflowPoint, 0, len(history)+len(forecast))
	for _, p := range history {
		if !p.Projected {
			out = append(out, p)
		}
	}
	for _, p := range forecast {
		if p.Projected {
			out = append(out, p)
		}
	}
	return out
}
