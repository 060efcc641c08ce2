// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"
)

// FieldRange describes one numeric input and the range it will be
// saturated into before evaluation.
type FieldRange struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// ValidateRange returns a warning when the value lies outside its range and
// will be clamped, or an empty string when it is acceptable.
func ValidateRange(f FieldRange) string {
	switch {
	case math.IsNaN(f.Value) || math.IsInf(f.Value, 0):
		return fmt.Sprintf("%s is not a finite number and will be treated as %v", f.Name, f.Min)
	case f.Value < f.Min:
		return fmt.Sprintf("%s of %v is below the minimum %v and will be clamped", f.Name, f.Value, f.Min)
	case f.Value > f.Max:
		return fmt.Sprintf("%s of %v exceeds the maximum %v and will be clamped", f.Name, f.Value, f.Max)
	}
	return ""
}

// ValidateRanges checks every field and returns the warnings in input order.
func ValidateRanges(fields []FieldRange) []string {
	var warnings []string
	for _, f := range fields {
		if w := ValidateRange(f); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

// ValidateNonNegative returns a warning for a negative amount that will be
// treated as zero.
func ValidateNonNegative(name string, value float64) string {
	if value < 0 {
		return fmt.Sprintf("%s of %v is negative and will be treated as 0", name, value)
	}
	return ""
}
