package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionMatches(t *testing.T) {
	tx := Transaction{Description: "AWS Web Services", Category: "Infrastructure"}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"aws", true},
		{"WEB", true},
		{"infra", true},
		{"payroll", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, tx.Matches(tt.query))
		})
	}
}

func TestTransactionClone(t *testing.T) {
	score := 40
	tx := Transaction{ID: "t1", RiskScore: &score}

	c := tx.Clone()
	*c.RiskScore = 90

	assert.Equal(t, 40, *tx.RiskScore)
	assert.Equal(t, "t1", c.ID)
}
