// Package format renders amounts for display. Currency codes are labels
// only; no conversion between currencies ever happens.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Scale returns the number of minor-unit digits used for code, e.g. 2 for
// EUR and 0 for JPY. Unknown codes fall back to 2.
func Scale(code string) int {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Round rounds amount half away from zero to the minor unit of code.
func Round(amount float64, code string) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(int32(Scale(code))).Float64()
	return f
}

// Currency returns amount with thousands separators followed by the upper-
// cased currency code (e.g., "-1,234.56 EUR").
func Currency(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return NumericCurrency(amount, 2)
	}
	return NumericCurrency(Round(amount, code), Scale(code)) + " " + code
}

// NumericCurrency returns amount rounded to scale digits with separators
// but without a currency label (e.g., "-1,234.56").
func NumericCurrency(amount float64, scale int) string {
	f, _ := decimal.NewFromFloat(amount).Round(int32(scale)).Float64()
	if f == 0 {
		f = 0 // drop negative zero
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", scale), f)
}

// Percent renders a decimal fraction as a percentage (0.16 -> "16.00%").
func Percent(rate float64) string {
	f, _ := decimal.NewFromFloat(rate).Shift(2).Round(2).Float64()
	if f == 0 {
		f = 0
	}
	return printer.Sprintf("%.2f%%", f)
}
