package numparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Thousands dot and decimal comma", "1.234,56", 1234.56},
		{"Decimal comma", "12,5", 12.5},
		{"Not a number", "abc", 0},
		{"Surrounding whitespace", "  10  ", 10},
		{"Empty", "", 0},
		{"Only whitespace", "   ", 0},
		{"Plain integer", "1200", 1200},
		{"Dot decimal with one digit", "1.5", 1.5},
		{"Dot followed by three digits at end is thousands", "1.234", 1234},
		{"Dot followed by four digits is decimal", "1.2345", 1.2345},
		{"Two thousands separators", "1.234.567", 1234567},
		{"Thousands with decimals", "1.234.567,89", 1234567.89},
		{"Inner whitespace as grouping", "1 234,50", 1234.5},
		{"Non-breaking space grouping", "1\u00a0234", 1234},
		{"Negative decimal comma", "-3,5", -3.5},
		{"Explicit plus", "+7", 7},
		{"Trailing unit is ignored", "300€", 300},
		{"Percent sign is ignored", "16%", 16},
		{"Only first comma converts", "1,234,5", 1.234},
		{"Leading decimal point", ".5", 0.5},
		{"Lone dot", ".", 0},
		{"Exponent", "1e3", 1000},
		{"Overflowing exponent is not finite", "1e999", 0},
		{"Letters before digits", "x12", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Parse(tt.input), 1e-12, "Parse(%q)", tt.input)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.234,56", "1234.56"},
		{" 12 , 5 ", "12.5"},
		{"1.23", "1.23"},
		{"1.234a", "1234a"},
		{"1.2345", "1.2345"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestParseClamped(t *testing.T) {
	assert.Equal(t, 0.4, ParseClamped("0,9", 0, 0.4))
	assert.Equal(t, 0.0, ParseClamped("-5", 0, 0.4))
	assert.Equal(t, 0.16, ParseClamped("0,16", 0, 0.4))
	assert.Equal(t, 12.0, ParseClamped("garbage", 12, 84))
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"Whole number", "10", 10},
		{"Rounds half up", "10,5", 11},
		{"Rounds down", "10,4", 10},
		{"Clamps to floor", "0", 1},
		{"Clamps to ceiling", "25.000", 10000},
		{"Unparseable becomes floor", "lots", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseInt(tt.input, 1, 10000))
		})
	}
}
