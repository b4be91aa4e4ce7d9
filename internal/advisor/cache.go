package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dvloznov/orchestra-ai/internal/domain"
)

// Cache memoizes the read-only briefing operations for ttl. Failure
// defaults are never stored, so a transient outage is retried on the next
// call. Categorization, forecasts and chat always pass through.
type Cache struct {
	Advisor
	store *ristretto.Cache[string, any]
	ttl   time.Duration
}

// NewCache wraps next with a TTL cache.
func NewCache(next Advisor, ttl time.Duration) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters:        10000, // number of keys to track frequency of
		MaxCost:            1000,
		BufferItems:        64, // number of keys per Get buffer
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("NewCache: create ristretto cache: %w", err)
	}
	return &Cache{Advisor: next, store: store, ttl: ttl}, nil
}

// Close releases the cache's background resources.
func (c *Cache) Close() {
	c.store.Close()
}

func (c *Cache) set(key string, v any) {
	c.store.SetWithTTL(key, v, 1, c.ttl)
	c.store.Wait()
}

// ExecutiveSummary implements Advisor.
func (c *Cache) ExecutiveSummary(ctx context.Context, m domain.Metrics, alerts []domain.Alert) string {
	key := requestKey(OpExecutiveSummary, m, alerts)
	if v, ok := c.store.Get(key); ok {
		return v.(string)
	}
	s := c.Advisor.ExecutiveSummary(ctx, m, alerts)
	if s != SummaryFailed && s != SummaryEmpty {
		c.set(key, s)
	}
	return s
}

// InvestorReport implements Advisor.
func (c *Cache) InvestorReport(ctx context.Context, m domain.Metrics, recent []domain.CashflowPoint) string {
	key := requestKey(OpInvestorReport, m, recent)
	if v, ok := c.store.Get(key); ok {
		return v.(string)
	}
	s := c.Advisor.InvestorReport(ctx, m, recent)
	if s != ReportFailed && s != ReportEmpty {
		c.set(key, s)
	}
	return s
}

// StrategicActions implements Advisor.
func (c *Cache) StrategicActions(ctx context.Context, txs []domain.Transaction) []domain.StrategicAction {
	key := requestKey(OpStrategicActions, txs)
	if v, ok := c.store.Get(key); ok {
		return append([]domain.StrategicAction{}, v.([]domain.StrategicAction)...)
	}
	actions := c.Advisor.StrategicActions(ctx, txs)
	if len(actions) > 0 {
		c.set(key, append([]domain.StrategicAction(nil), actions...))
	}
	return actions
}

var _ Advisor = (*Cache)(nil)
