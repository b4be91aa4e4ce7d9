package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Guard serializes calls per operation and coalesces identical concurrent
// requests into one upstream call. Callers of a busy operation queue until
// it frees up or their context ends, in which case they get the safe default.
type Guard struct {
	next  Advisor
	log   zerolog.Logger
	sems  map[Operation]*semaphore.Weighted
	group singleflight.Group
}

// NewGuard wraps next.
func NewGuard(next Advisor, log zerolog.Logger) *Guard {
	sems := make(map[Operation]*semaphore.Weighted, len(Operations))
	for _, op := range Operations {
		sems[op] = semaphore.NewWeighted(1)
	}
	return &Guard{
		next: next,
		log:  log.With().Str("component", "advisor_guard").Logger(),
		sems: sems,
	}
}

// requestKey identifies a request by operation and a hash of its inputs.
func requestKey(op Operation, inputs ...any) string {
	h := xxhash.New()
	_, _ = h.WriteString(string(op))
	enc := json.NewEncoder(h)
	for _, in := range inputs {
		_ = enc.Encode(in)
	}
	return fmt.Sprintf("%s:%016x", op, h.Sum64())
}

func (g *Guard) do(ctx context.Context, op Operation, key string, fn func(context.Context) any) (any, bool) {
	v, err, shared := g.group.Do(key, func() (any, error) {
		sem := g.sems[op]
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer sem.Release(1)
		return fn(ctx), nil
	})
	if err != nil {
		g.log.Warn().Err(err).Str("operation", string(op)).Msg("Gave up waiting for advisor operation")
		return nil, false
	}
	if shared {
		g.log.Debug().Str("operation", string(op)).Msg("Coalesced duplicate advisor request")
	}
	return v, true
}

// ExecutiveSummary implements Advisor.
func (g *Guard) ExecutiveSummary(ctx context.Context, m domain.Metrics, alerts []domain.Alert) string {
	key := requestKey(OpExecutiveSummary, m, alerts)
	v, ok := g.do(ctx, OpExecutiveSummary, key, func(ctx context.Context) any {
		return g.next.ExecutiveSummary(ctx, m, alerts)
	})
	if !ok {
		return SummaryFailed
	}
	return v.(string)
}

// InvestorReport implements Advisor.
func (g *Guard) InvestorReport(ctx context.Context, m domain.Metrics, recent []domain.CashflowPoint) string {
	key := requestKey(OpInvestorReport, m, recent)
	v, ok := g.do(ctx, OpInvestorReport, key, func(ctx context.Context) any {
		return g.next.InvestorReport(ctx, m, recent)
	})
	if !ok {
		return ReportFailed
	}
	return v.(string)
}

// StrategicActions implements Advisor.
func (g *Guard) StrategicActions(ctx context.Context, txs []domain.Transaction) []domain.StrategicAction {
	key := requestKey(OpStrategicActions, txs)
	v, ok := g.do(ctx, OpStrategicActions, key, func(ctx context.Context) any {
		return g.next.StrategicActions(ctx, txs)
	})
	if !ok {
		return []domain.StrategicAction{}
	}
	return append([]domain.StrategicAction{}, v.([]domain.StrategicAction)...)
}

// AnalyzeTransactions implements Advisor.
func (g *Guard) AnalyzeTransactions(ctx context.Context, txs []domain.Transaction) []domain.CategorizationResult {
	key := requestKey(OpAnalyze, txs)
	v, ok := g.do(ctx, OpAnalyze, key, func(ctx context.Context) any {
		return g.next.AnalyzeTransactions(ctx, txs)
	})
	if !ok {
		return []domain.CategorizationResult{}
	}
	return append([]domain.CategorizationResult{}, v.([]domain.CategorizationResult)...)
}

// ScenarioForecast implements Advisor.
func (g *Guard) ScenarioForecast(ctx context.Context, history []domain.CashflowPoint, scenario string) domain.Forecast {
	key := requestKey(OpForecast, history, scenario)
	v, ok := g.do(ctx, OpForecast, key, func(ctx context.Context) any {
		return g.next.ScenarioForecast(ctx, history, scenario)
	})
	if !ok {
		return failedForecast(history)
	}
	f := v.(domain.Forecast)
	f.Data = append([]domain.CashflowPoint(nil), f.Data...)
	return f
}

// Chat implements Advisor.
func (g *Guard) Chat(ctx context.Context, message string, c ChatContext) string {
	key := requestKey(OpChat, message, c)
	v, ok := g.do(ctx, OpChat, key, func(ctx context.Context) any {
		return g.next.Chat(ctx, message, c)
	})
	if !ok {
		return ChatFailed
	}
	return v.(string)
}

var _ Advisor = (*Guard)(nil)
