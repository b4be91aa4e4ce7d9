package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/money"
)

const companyName = "Orchestra"

// promptTransaction is the subset of a transaction the model gets to see.
type promptTransaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category,omitempty"`
}

func toPromptTransactions(txs []domain.Transaction) string {
	out := make([]promptTransaction, len(txs))
	for i, t := range txs {
		out[i] = promptTransaction{
			ID:          t.ID,
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
			Type:        string(t.Type),
			Category:    t.Category,
		}
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func toPromptCashflow(points []domain.CashflowPoint) string {
	if points == nil {
		points = []domain.CashflowPoint{}
	}
	b, _ := json.Marshal(points)
	return string(b)
}

func writeSnapshot(b *strings.Builder, m domain.Metrics) {
	fmt.Fprintf(b, "- Current Balance: %s\n", money.USD(m.Balance))
	fmt.Fprintf(b, "- Monthly Burn Rate: ~%s\n", money.USD(m.MonthlyBurn))
	fmt.Fprintf(b, "- Estimated Runway: %s months\n", money.Months(m.Runway))
}

func summaryPrompt(m domain.Metrics, alerts []domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert CFO AI Assistant for a startup called %q.\n\n", companyName)
	b.WriteString("Current Financial Snapshot:\n")
	writeSnapshot(&b, m)

	b.WriteString("- Active Alerts:\n")
	active := 0
	for _, a := range alerts {
		if a.Resolved {
			continue
		}
		active++
		fmt.Fprintf(&b, "  - [%s] %s (%s)\n", a.Severity, a.Message, a.Date)
	}
	if active == 0 {
		b.WriteString("  - none\n")
	}

	b.WriteString("\nTask:\n")
	b.WriteString("Write a 2-3 sentence proactive executive summary.\n")
	b.WriteString("- Focus on the single most critical risk or opportunity.\n")
	b.WriteString("- Be concise, professional, and actionable.\n")
	b.WriteString("- Do not use markdown formatting, just plain text.\n")
	return b.String()
}

func reportPrompt(m domain.Metrics, recent []domain.CashflowPoint) string {
	var b strings.Builder
	b.WriteString("Write a professional Investor Update email for a startup.\n\n")
	b.WriteString("Metrics:\n")
	fmt.Fprintf(&b, "- Cash on Hand: %s\n", money.USD(m.Balance))
	fmt.Fprintf(&b, "- Monthly Burn: %s\n", money.USD(m.MonthlyBurn))
	fmt.Fprintf(&b, "- Runway: %s months\n", money.Months(m.Runway))
	fmt.Fprintf(&b, "- Recent Trend: %s\n\n", toPromptCashflow(recent))
	b.WriteString("Tone: Professional, transparent, and confident.\n")
	b.WriteString("Structure: Subject Line, Executive Summary, Key Metrics, Lowlights/Risks, and Closing.\n")
	b.WriteString("Only quote figures that appear above.\n")
	return b.String()
}

func actionsPrompt(txs []domain.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these transactions and suggest exactly %d specific strategic actions to improve cashflow.\n", StrategicActionCount)
	fmt.Fprintf(&b, "Transactions: %s\n\n", toPromptTransactions(txs))
	b.WriteString("Return a JSON array of objects with the fields 'action', 'impact', and 'type' ")
	b.WriteString("where type is one of: saving, risk, growth.\n")
	return b.String()
}

func analysisPrompt(txs []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Analyze the following financial transactions.\n")
	b.WriteString("1. Assign a standardized category (e.g., Software, Payroll, Marketing, Sales, Office, Travel).\n")
	fmt.Fprintf(&b, "2. Detect if the transaction is an anomaly (high risk) based on description or amount "+
		"(assume an amount above %s is unusual for an unfamiliar counterparty).\n", money.USD(AnomalyThresholdUSD))
	b.WriteString("3. Provide a risk score (0-100) and a short reason.\n")
	b.WriteString("Return one result per transaction, keyed by its id.\n\n")
	fmt.Fprintf(&b, "Transactions: %s\n", toPromptTransactions(txs))
	return b.String()
}

func forecastPrompt(history []domain.CashflowPoint, scenario string) string {
	var b strings.Builder
	b.WriteString("You are a financial CFO AI.\n")
	fmt.Fprintf(&b, "Historical Cashflow Data (last %d periods): %s\n\n", ForecastHistory, toPromptCashflow(history))
	fmt.Fprintf(&b, "User Scenario to Simulate: %q\n\n", scenario)
	b.WriteString("Task:\n")
	fmt.Fprintf(&b, "1. Project the cashflow for the NEXT %d periods based on the history and the user's what-if scenario.\n", ForecastHorizon)
	b.WriteString("2. Provide a short strategic explanation of the impact.\n")
	fmt.Fprintf(&b, "3. Return the data for the next %d periods in the exact JSON format as the input history, ", ForecastHorizon)
	b.WriteString("with projected set to true and non-negative income and expenses.\n")
	return b.String()
}

func chatPrompt(message string, c ChatContext) string {
	txs := c.RecentTransactions
	if len(txs) > MaxChatTxs {
		txs = txs[:MaxChatTxs]
	}
	lines := make([]string, len(txs))
	for i, t := range txs {
		lines[i] = fmt.Sprintf("%s: %s ($%s)", t.Date, t.Description, money.Abs(t.Amount))
		if t.Amount < 0 {
			lines[i] = fmt.Sprintf("%s: %s (-$%s)", t.Date, t.Description, money.Abs(t.Amount))
		}
	}
	recent, _ := json.Marshal(lines)

	var b strings.Builder
	fmt.Fprintf(&b, "You are the %q. You are helpful, concise, and financially savvy.\n\n", companyName+" CFO Agent")
	b.WriteString("User Context:\n")
	fmt.Fprintf(&b, "- Cash Balance: %s\n", money.USD(c.Metrics.Balance))
	fmt.Fprintf(&b, "- Monthly Burn: %s\n", money.USD(c.Metrics.MonthlyBurn))
	fmt.Fprintf(&b, "- Runway: %s months\n", money.Months(c.Metrics.Runway))
	fmt.Fprintf(&b, "- Recent Transactions: %s\n\n", recent)
	fmt.Fprintf(&b, "User Question: %q\n\n", message)
	b.WriteString("Answer the user's question based on their data.\n")
	b.WriteString("If they ask about runway, explain what it means for their specific number.\n")
	b.WriteString("If they ask about spending, refer to the burn rate or recent transactions.\n")
	b.WriteString("Only use figures from the context above; never invent numbers.\n")
	b.WriteString("Keep answers under 50 words unless detailed analysis is requested.\n")
	return b.String()
}
