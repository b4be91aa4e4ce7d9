package advisor

import (
	"context"
	"fmt"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/money"
)

// Fallback answers every operation with fixed demo content. It never calls
// out and its output depends only on its input.
type Fallback struct{}

// Labels of fallback content.
const (
	FallbackSummary = "Based on current trends, your cashflow remains stable with 14 months of runway. " +
		"Note: 2 high-priority alerts require attention regarding vendor payments."
	FallbackCategory      = "Uncategorized (No API)"
	FallbackRiskScore     = 10
	FallbackRiskReason    = "Automatic analysis unavailable (no API key)."
	FallbackForecastLabel = "API Key missing. Using static demo data."
)

// ExecutiveSummary implements Advisor.
func (Fallback) ExecutiveSummary(context.Context, domain.Metrics, []domain.Alert) string {
	return FallbackSummary
}

// InvestorReport implements Advisor.
func (Fallback) InvestorReport(_ context.Context, m domain.Metrics, _ []domain.CashflowPoint) string {
	return fmt.Sprintf("Subject: October Investor Update - Strong Growth, Stable Runway\n\n"+
		"Hi everyone,\n\n"+
		"We are pleased to report that our cash position remains strong at %s. "+
		"Our monthly burn rate is currently %s, giving us a healthy %s months of runway.\n\n"+
		"Key Highlights:\n"+
		"- Revenue increased by 15%% MoM.\n"+
		"- Optimization of infrastructure costs is underway.\n\n"+
		"As always, thank you for your support.\n\n"+
		"Best,\nAlex Finance",
		money.USD(m.Balance), money.USD(m.MonthlyBurn), money.Months(m.Runway))
}

// StrategicActions implements Advisor.
func (Fallback) StrategicActions(context.Context, []domain.Transaction) []domain.StrategicAction {
	return []domain.StrategicAction{
		{Action: "Renegotiate AWS Enterprise Contract", Impact: "Potential $2,400/mo saving", Type: domain.ActionSaving},
		{Action: "Investigate 'Unknown Vendor' payments", Impact: "Risk mitigation", Type: domain.ActionRisk},
		{Action: "Move idle cash to Yield Account", Impact: "+4.5% APY Interest", Type: domain.ActionGrowth},
	}
}

// AnalyzeTransactions implements Advisor.
func (Fallback) AnalyzeTransactions(_ context.Context, txs []domain.Transaction) []domain.CategorizationResult {
	if len(txs) > MaxAnalyzeBatch {
		txs = txs[:MaxAnalyzeBatch]
	}
	out := make([]domain.CategorizationResult, 0, len(txs))
	for _, t := range txs {
		out = append(out, domain.CategorizationResult{
			ID:         t.ID,
			Category:   FallbackCategory,
			RiskScore:  FallbackRiskScore,
			RiskReason: FallbackRiskReason,
		})
	}
	return out
}

// ScenarioForecast implements Advisor.
func (Fallback) ScenarioForecast(_ context.Context, history []domain.CashflowPoint, _ string) domain.Forecast {
	return domain.Forecast{
		Explanation: FallbackForecastLabel,
		Data:        append([]domain.CashflowPoint(nil), history...),
	}
}

// Chat implements Advisor.
func (Fallback) Chat(_ context.Context, message string, c ChatContext) string {
	return fmt.Sprintf("I can see you're asking about: %s. Since I'm in demo mode (no API key), "+
		"I can tell you that your current balance is %s.", message, money.USD(c.Metrics.Balance))
}

var _ Advisor = Fallback{}
