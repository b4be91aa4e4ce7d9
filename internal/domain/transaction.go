package domain

import "strings"

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// UncategorizedCategory marks a transaction nobody has classified yet.
const UncategorizedCategory = "Uncategorized"

// Transaction represents one ledger entry shown on the dashboard.
// Amount is signed: income is positive, expenses are negative.
// Transactions are never deleted, only appended or updated in place.
type Transaction struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	Type        TransactionType   `json:"type"`
	Category    string            `json:"category"`
	Status      TransactionStatus `json:"status"`
	RiskScore   *int              `json:"riskScore,omitempty"` // 0-100, assigned by the advisor
	RiskReason  string            `json:"riskReason,omitempty"`
	IsAnomaly   bool              `json:"isAnomaly,omitempty"`
}

// Clone returns a copy of t that shares no pointers with it.
func (t Transaction) Clone() Transaction {
	if t.RiskScore != nil {
		score := *t.RiskScore
		t.RiskScore = &score
	}
	return t
}

// Matches reports whether query occurs in the description or category,
// ignoring case. An empty query matches everything.
func (t Transaction) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Category), q)
}

// CategorizationResult is the advisor's verdict for a single transaction.
type CategorizationResult struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	RiskScore  int    `json:"riskScore"`
	RiskReason string `json:"riskReason"`
	IsAnomaly  bool   `json:"isAnomaly"`
}
