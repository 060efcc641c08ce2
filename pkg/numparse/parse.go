// Package numparse turns locale-formatted free text ("1.234,56", "12,5",
// " 10 ") into finite numbers. Parsing is lenient by contract: anything
// that cannot be read as a number becomes 0 and no error is ever returned.
package numparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
)

// leadingNumber matches the longest decimal literal at the start of the
// normalized text; trailing garbage is ignored.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// Parse converts free text into a finite float64, returning 0 when the text
// holds no number.
func Parse(text string) float64 {
	normalized := Normalize(text)
	literal := leadingNumber.FindString(normalized)
	if literal == "" {
		return 0
	}
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil || !mathutil.IsFinite(v) {
		return 0
	}
	return v
}

// ParseClamped parses text and saturates the result into [min, max].
func ParseClamped(text string, min, max float64) float64 {
	return mathutil.Clamp(Parse(text), min, max)
}

// ParseInt parses text, saturates it into [min, max] and rounds to the
// nearest whole number. Used for quantities and month counts.
func ParseInt(text string, min, max int) int {
	v := ParseClamped(text, float64(min), float64(max))
	return mathutil.ClampInt(int(math.Round(v)), min, max)
}

// Normalize rewrites text into the dot-decimal form strconv understands:
// whitespace is removed, a '.' followed by exactly three digits and then a
// non-digit (or the end) is a thousands separator and is dropped, and the
// first ',' becomes the decimal point.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range text {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	stripped := b.String()

	var out strings.Builder
	out.Grow(len(stripped))
	for i := 0; i < len(stripped); i++ {
		if stripped[i] == '.' && isThousandsSeparator(stripped, i) {
			continue
		}
		out.WriteByte(stripped[i])
	}

	return strings.Replace(out.String(), ",", ".", 1)
}

// isThousandsSeparator reports whether the '.' at index i is followed by
// exactly three ASCII digits and then a non-digit or the end of s.
// Lookahead runs against the original text, so "1.234.567" drops both dots.
func isThousandsSeparator(s string, i int) bool {
	for k := 1; k <= 3; k++ {
		if i+k >= len(s) || !isDigit(s[i+k]) {
			return false
		}
	}
	next := i + 4
	return next >= len(s) || !isDigit(s[next])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
