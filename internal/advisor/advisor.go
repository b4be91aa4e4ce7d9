// Package advisor turns dashboard state into requests for a hosted
// generative model and turns the answers back into domain values.
//
// Every operation is total: callers always get a usable value back. When no
// API key is configured the Fallback implementation answers with fixed,
// clearly labelled demo content. When a live call fails, the operation's
// safe default is returned and the failure is only logged.
package advisor

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/rs/zerolog"
)

// Advisor is the capability interface of the AI adapter, one method per
// operation.
type Advisor interface {
	// ExecutiveSummary returns a 2-3 sentence plain-text briefing that
	// highlights the single most critical risk or opportunity.
	ExecutiveSummary(ctx context.Context, m domain.Metrics, alerts []domain.Alert) string

	// InvestorReport returns an investor update with a subject line,
	// executive summary, key metrics, risks and closing.
	InvestorReport(ctx context.Context, m domain.Metrics, recent []domain.CashflowPoint) string

	// StrategicActions returns three recommendations, or none on failure.
	StrategicActions(ctx context.Context, txs []domain.Transaction) []domain.StrategicAction

	// AnalyzeTransactions categorizes and risk-scores up to MaxAnalyzeBatch
	// transactions, or returns none on failure.
	AnalyzeTransactions(ctx context.Context, txs []domain.Transaction) []domain.CategorizationResult

	// ScenarioForecast projects the next three periods under a what-if
	// scenario. On failure Data is the unchanged history.
	ScenarioForecast(ctx context.Context, history []domain.CashflowPoint, scenario string) domain.Forecast

	// Chat answers a free-text question grounded in ctxData.
	Chat(ctx context.Context, message string, ctxData ChatContext) string
}

// ChatContext is the slice of the snapshot the chat agent may talk about.
type ChatContext struct {
	Metrics            domain.Metrics       `json:"metrics"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

// Operation names an adapter operation; used for logging, guarding and
// caching.
type Operation string

const (
	OpExecutiveSummary Operation = "executive_summary"
	OpInvestorReport   Operation = "investor_report"
	OpStrategicActions Operation = "strategic_actions"
	OpAnalyze          Operation = "analyze_transactions"
	OpForecast         Operation = "scenario_forecast"
	OpChat             Operation = "chat"
)

// Operations lists every adapter operation.
var Operations = []Operation{
	OpExecutiveSummary, OpInvestorReport, OpStrategicActions, OpAnalyze, OpForecast, OpChat,
}

// Limits on how much context is sent to the model.
const (
	MaxAnalyzeBatch      = 10
	MaxActionTxs         = 15
	MaxChatTxs           = 5
	ForecastHistory      = 3
	ForecastHorizon      = 3
	StrategicActionCount = 3
	AnomalyThresholdUSD  = 10000
)

// Safe defaults returned when a live call fails.
const (
	SummaryFailed  = "Unable to generate AI insights at this moment."
	SummaryEmpty   = "Analysis unavailable."
	ReportFailed   = "Error generating report."
	ReportEmpty    = "Report generation failed."
	ForecastFailed = "Failed to generate forecast."
	ChatFailed     = "I'm sorry, I encountered an error processing your request."
	ChatEmpty      = "I'm having trouble accessing the financial data right now."
)

var (
	// ErrEmptyResponse is returned by generators when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrSchema marks a structured response that does not match its schema.
	ErrSchema = errors.New("response does not match schema")
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Config selects and tunes the adapter.
type Config struct {
	APIKey   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// New picks the adapter implementation once, at startup. Without an API key
// the deterministic Fallback is returned. With one, the live Gemini adapter
// is wrapped in a Guard and, when CacheTTL is positive, a Cache.
func New(ctx context.Context, cfg Config, log zerolog.Logger) Advisor {
	if cfg.APIKey == "" {
		log.Info().Msg("No generative API key configured - using fallback advisor")
		return Fallback{}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	gen, err := NewGenAIGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create generative client - using fallback advisor")
		return Fallback{}
	}

	log.Info().Str("model", cfg.Model).Msg("Using Gemini advisor")

	var adv Advisor = NewGemini(gen, cfg.Timeout, log)
	adv = NewGuard(adv, log)
	if cfg.CacheTTL > 0 {
		cached, err := NewCache(adv, cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("Advisor cache disabled")
			return adv
		}
		adv = cached
	}
	return adv
}

func failedForecast(history []domain.CashflowPoint) domain.Forecast {
	return domain.Forecast{
		Explanation: ForecastFailed,
		Data:        append([]domain.CashflowPoint(nil), history...),
	}
}
