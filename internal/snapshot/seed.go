package snapshot

import "github.com/dvloznov/orchestra-ai/internal/domain"

// Ids referenced by the scripted demo narrative.
const (
	SeedCrisisAlertID        = "a1"
	SeedAnomalyTransactionID = "t4"
)

func score(v int) *int { return &v }

// Seed returns the demo data set every new session starts from. The
// cashflow series is left empty; the session fills it from the generator.
func Seed() View {
	return View{
		Transactions: []domain.Transaction{
			{ID: "t1", Date: "2023-10-24", Description: "Stripe Payout #8842", Amount: 12500, Type: domain.TransactionIncome, Category: "Revenue", Status: domain.StatusCompleted, RiskScore: score(5)},
			{ID: "t2", Date: "2023-10-24", Description: "AWS EMEA SERVICE", Amount: -2400, Type: domain.TransactionExpense, Category: "Infrastructure", Status: domain.StatusCompleted, RiskScore: score(2)},
			{ID: "t3", Date: "2023-10-23", Description: "Uber * Trip 2991", Amount: -45.20, Type: domain.TransactionExpense, Category: "Travel", Status: domain.StatusCompleted},
			{ID: "t4", Date: "2023-10-23", Description: "Unknown Vendor 994X", Amount: -12000, Type: domain.TransactionExpense, Category: domain.UncategorizedCategory, Status: domain.StatusPending, RiskScore: score(85), RiskReason: "High amount for new vendor", IsAnomaly: true},
			{ID: "t5", Date: "2023-10-22", Description: "Gusto Payroll", Amount: -68000, Type: domain.TransactionExpense, Category: "Payroll", Status: domain.StatusCompleted},
			{ID: "t6", Date: "2023-10-22", Description: "WeWork Rent Oct", Amount: -5500, Type: domain.TransactionExpense, Category: "Office", Status: domain.StatusCompleted},
			{ID: "t7", Date: "2023-10-21", Description: "Client Invoice #4002", Amount: 45000, Type: domain.TransactionIncome, Category: "Revenue", Status: domain.StatusCompleted},
			{ID: "t8", Date: "2023-10-20", Description: "Github Ent", Amount: -220, Type: domain.TransactionExpense, Category: "Software", Status: domain.StatusCompleted},
		},
		Alerts: []domain.Alert{
			{ID: "a1", Severity: domain.SeverityHigh, Message: "Unusual outflow detected: $12,000 to Unknown Vendor", Date: "10 mins ago"},
			{ID: "a2", Severity: domain.SeverityMedium, Message: "Runway dropped below 15 months", Date: "2 hours ago"},
			{ID: "a3", Severity: domain.SeverityLow, Message: "New bank account connected", Date: "1 day ago", Resolved: true},
		},
		Integrations: []domain.IntegrationStatus{
			{Name: "Silicon Valley Bank", Type: domain.IntegrationBank, LastSynced: "5 mins ago", Status: domain.IntegrationConnected},
			{Name: "NetSuite ERP", Type: domain.IntegrationERP, LastSynced: "10 mins ago", Status: domain.IntegrationConnected},
			{Name: "Stripe Payments", Type: domain.IntegrationStripe, LastSynced: "1 hour ago", Status: domain.IntegrationConnected},
			{Name: "Brex Cards", Type: domain.IntegrationBank, LastSynced: "Failed", Status: domain.IntegrationError},
		},
	}
}
