package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1240500, "$1,240,500"},
		{128400.4, "$128,400"},
		{0, "$0"},
		{-12000, "-$12,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, USD(tt.in))
	}
}

func TestAbs(t *testing.T) {
	assert.Equal(t, "3200", Abs(-3200))
	assert.Equal(t, "45.2", Abs(-45.20))
	assert.Equal(t, "8500", Abs(8500))
}

func TestMonths(t *testing.T) {
	assert.Equal(t, "9.7", Months(1240500.0/128400.0))
	assert.Equal(t, "99.0", Months(99))
}

func TestGrouped(t *testing.T) {
	assert.Equal(t, "85,000", Grouped(85000))
}
