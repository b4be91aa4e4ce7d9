// Package money formats currency amounts for prompts, alerts and reports.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// USD renders v as whole dollars with thousands separators, e.g. "$1,240,500".
// Negative values keep their sign in front of the dollar mark.
func USD(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	if d.IsNegative() {
		return printer.Sprintf("-$%d", d.Abs().IntPart())
	}
	return printer.Sprintf("$%d", d.IntPart())
}

// Grouped renders v with thousands separators and no currency mark.
func Grouped(v float64) string {
	return printer.Sprintf("%d", decimal.NewFromFloat(v).Round(0).IntPart())
}

// Abs renders the magnitude of v without float noise: 3200 -> "3200",
// -45.2 -> "45.2".
func Abs(v float64) string {
	return decimal.NewFromFloat(v).Abs().String()
}

// Months renders a runway figure with one decimal place.
func Months(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
