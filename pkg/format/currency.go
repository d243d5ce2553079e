// Package format renders deal figures as display strings.
package format

import (
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayLanguage = language.AmericanEnglish

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	rounded := roundCents(amount)
	if rounded.IsNegative() {
		return "-$" + grouped(rounded.Neg())
	}
	return "$" + grouped(rounded)
}

// Percent renders a value already expressed in percent, e.g. 12.345 as "12.35%".
func Percent(value float64) string {
	return roundCents(value).StringFixed(2) + "%"
}

// Ratio renders a unitless multiple such as DSCR or GRM with two decimals.
func Ratio(value float64) string {
	return roundCents(value).StringFixed(2)
}

// roundCents rounds half away from zero. NaN and infinities render as zero.
func roundCents(value float64) decimal.Decimal {
	if !mathutil.IsFinite(value) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value).Round(2)
}

func grouped(value decimal.Decimal) string {
	p := message.NewPrinter(displayLanguage)
	return p.Sprintf("%.2f", value.InexactFloat64())
}
