package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/rs/zerolog"
)

const (
	summaryTemperature float32 = 0.4
	summaryMaxTokens   int32   = 100
)

// Gemini is the live Advisor. Every call is bounded by timeout and every
// failure is converted into the operation's safe default.
type Gemini struct {
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger
}

// NewGemini creates a live advisor on top of gen. A zero timeout disables
// the per-call deadline.
func NewGemini(gen Generator, timeout time.Duration, log zerolog.Logger) *Gemini {
	return &Gemini{
		gen:     gen,
		timeout: timeout,
		log:     log.With().Str("component", "advisor").Logger(),
	}
}

func (g *Gemini) call(ctx context.Context, op Operation, req Request) (string, bool) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.gen.Generate(ctx, req)
	if err != nil {
		g.log.Warn().Err(err).Str("operation", string(op)).Dur("duration", time.Since(start)).Msg("Generative call failed")
		return "", false
	}
	g.log.Debug().Str("operation", string(op)).Dur("duration", time.Since(start)).Int("chars", len(text)).Msg("Generative call completed")
	return text, true
}

func (g *Gemini) schemaFailure(op Operation, err error) {
	g.log.Warn().Err(err).Str("operation", string(op)).Msg("Discarding malformed structured response")
}

// ExecutiveSummary implements Advisor.
func (g *Gemini) ExecutiveSummary(ctx context.Context, m domain.Metrics, alerts []domain.Alert) string {
	temperature := summaryTemperature
	text, ok := g.call(ctx, OpExecutiveSummary, Request{
		Prompt:          summaryPrompt(m, alerts),
		Temperature:     &temperature,
		MaxOutputTokens: summaryMaxTokens,
	})
	if !ok {
		return SummaryFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return SummaryEmpty
	}
	return text
}

// InvestorReport implements Advisor.
func (g *Gemini) InvestorReport(ctx context.Context, m domain.Metrics, recent []domain.CashflowPoint) string {
	text, ok := g.call(ctx, OpInvestorReport, Request{Prompt: reportPrompt(m, recent)})
	if !ok {
		return ReportFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return ReportEmpty
	}
	return text
}

// StrategicActions implements Advisor.
func (g *Gemini) StrategicActions(ctx context.Context, txs []domain.Transaction) []domain.StrategicAction {
	if len(txs) > MaxActionTxs {
		txs = txs[:MaxActionTxs]
	}
	text, ok := g.call(ctx, OpStrategicActions, Request{Prompt: actionsPrompt(txs), Schema: actionsSchema})
	if !ok {
		return []domain.StrategicAction{}
	}
	actions, err := parseActions(text)
	if err != nil {
		g.schemaFailure(OpStrategicActions, err)
		return []domain.StrategicAction{}
	}
	return actions
}

// AnalyzeTransactions implements Advisor.
func (g *Gemini) AnalyzeTransactions(ctx context.Context, txs []domain.Transaction) []domain.CategorizationResult {
	if len(txs) == 0 {
		return []domain.CategorizationResult{}
	}
	if len(txs) > MaxAnalyzeBatch {
		txs = txs[:MaxAnalyzeBatch]
	}
	asked := make(map[string]bool, len(txs))
	for _, t := range txs {
		asked[t.ID] = true
	}

	text, ok := g.call(ctx, OpAnalyze, Request{Prompt: analysisPrompt(txs), Schema: analysisSchema})
	if !ok {
		return []domain.CategorizationResult{}
	}
	results, err := parseAnalysis(text, asked)
	if err != nil {
		g.schemaFailure(OpAnalyze, err)
		return []domain.CategorizationResult{}
	}
	return results
}

// ScenarioForecast implements Advisor.
func (g *Gemini) ScenarioForecast(ctx context.Context, history []domain.CashflowPoint, scenario string) domain.Forecast {
	recent := history
	if len(recent) > ForecastHistory {
		recent = recent[len(recent)-ForecastHistory:]
	}
	text, ok := g.call(ctx, OpForecast, Request{Prompt: forecastPrompt(recent, scenario), Schema: forecastSchema})
	if !ok {
		return failedForecast(history)
	}
	f, err := parseForecast(text)
	if err != nil {
		g.schemaFailure(OpForecast, err)
		return failedForecast(history)
	}
	return f
}

// Chat implements Advisor.
func (g *Gemini) Chat(ctx context.Context, message string, c ChatContext) string {
	text, ok := g.call(ctx, OpChat, Request{Prompt: chatPrompt(message, c)})
	if !ok {
		return ChatFailed
	}
	if text = strings.TrimSpace(text); text == "" {
		return ChatEmpty
	}
	return text
}

var _ Advisor = (*Gemini)(nil)
