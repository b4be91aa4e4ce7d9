package main

import (
	"bytes"
	"testing"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("REPORT_BUCKET", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--seed", "42"))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDemoCommand(t *testing.T) {
	out := run(t, "demo")

	assert.Contains(t, out, "== welcome ==")
	assert.Contains(t, out, "Monthly burn: $125,000")
	assert.Contains(t, out, "Resolving: Unusual outflow detected: $12,000 to Unknown Vendor")
	assert.Contains(t, out, "Monthly burn: $78,000")
	assert.Contains(t, out, "Tour: welcome -> action -> resolve -> done")
}

func TestSummaryCommand(t *testing.T) {
	out := run(t, "summary")

	assert.Contains(t, out, "Monthly burn: $85,000")
	assert.Contains(t, out, advisor.FallbackSummary)
	assert.Contains(t, out, "Renegotiate AWS Enterprise Contract")
}

func TestChatCommand(t *testing.T) {
	out := run(t, "chat", "how", "long", "is", "our", "runway?")
	assert.Contains(t, out, "how long is our runway?")
}

func TestForecastCommand(t *testing.T) {
	out := run(t, "forecast", "Hire", "two", "engineers")
	assert.Contains(t, out, advisor.FallbackForecastLabel)
	assert.Contains(t, out, "No projection; last balance")
}

func TestTransactionsCommand(t *testing.T) {
	out := run(t, "transactions", "--query", "payroll")
	assert.Contains(t, out, "Gusto Payroll")
	assert.NotContains(t, out, "WeWork Rent Oct")
}

func TestReportArchiveRequiresBucket(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("REPORT_BUCKET", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"report", "--archive", "--seed", "1"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_BUCKET")
	assert.Contains(t, out.String(), "Subject:")
}
