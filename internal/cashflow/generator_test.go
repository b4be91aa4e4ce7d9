package cashflow

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator(seed int64) *Generator {
	now := time.Date(2023, 10, 24, 9, 0, 0, 0, time.UTC)
	return &Generator{
		Rand: rand.New(rand.NewSource(seed)),
		Now:  func() time.Time { return now },
	}
}

func TestGenerate_Shape(t *testing.T) {
	series := fixedGenerator(1).Generate(true)
	require.Len(t, series, HistoryDays+1+ProjectionDays)

	for i, p := range series {
		assert.GreaterOrEqual(t, p.Income, 0.0)
		assert.GreaterOrEqual(t, p.Expenses, 0.0)
		assert.Equal(t, i > HistoryDays, p.Projected, "point %d", i)
	}
	assert.Equal(t, "Oct 24", series[HistoryDays].Month)
	assert.Equal(t, "Oct 25", series[HistoryDays+1].Month)
	assert.Equal(t, "Jul 26", series[0].Month)
}

func TestGenerate_Deterministic(t *testing.T) {
	a := fixedGenerator(42).Generate(false)
	b := fixedGenerator(42).Generate(false)
	assert.Equal(t, a, b)
}

func TestGenerate_CrisisBurnsFaster(t *testing.T) {
	crisis := fixedGenerator(7).Generate(true)
	normal := fixedGenerator(7).Generate(false)

	// identical history, diverging projection
	assert.Equal(t, crisis[:HistoryDays+1], normal[:HistoryDays+1])

	last := len(crisis) - 1
	assert.Less(t, crisis[last].Balance, normal[last].Balance)
	assert.Equal(t, CrisisDailyBurn, crisis[last].Expenses)
	assert.Equal(t, NormalDailyBurn, normal[last].Expenses)
}

func TestHistory(t *testing.T) {
	gen := NewGenerator(1)
	hist := History(gen.Generate(true))
	require.Len(t, hist, HistoryDays+1)
	for _, p := range hist {
		assert.False(t, p.Projected)
	}
	assert.Empty(t, History([]domain.CashflowPoint{{Month: "p1", Projected: true}}))
}

func TestRecent(t *testing.T) {
	series := []domain.CashflowPoint{
		{Month: "a"}, {Month: "b"}, {Month: "c"}, {Month: "d"},
		{Month: "p1", Projected: true},
	}
	got := Recent(series, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Month)
	assert.Equal(t, "d", got[2].Month)

	assert.Len(t, Recent(series[:2], 3), 2)
}

func TestExtend(t *testing.T) {
	history := []domain.CashflowPoint{{Month: "a"}, {Month: "old", Projected: true}}
	forecast := []domain.CashflowPoint{{Month: "x"}, {Month: "f1", Projected: true}, {Month: "f2", Projected: true}}

	got := Extend(history, forecast)
	months := make([]string, len(got))
	for i, p := range got {
		months[i] = p.Month
	}
	assert.Equal(t, []string{"a", "f1", "f2"}, months)
}
