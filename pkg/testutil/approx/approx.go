// Package approx compares floating point results in tests.
package approx

import "math"

// WithinTolerance checks if two values are within a specified absolute tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// WithinRelativeTolerance checks if two values agree to within rel of the
// larger magnitude. Values near zero fall back to an absolute check of rel.
func WithinRelativeTolerance(val1, val2, rel float64) bool {
	scale := math.Max(math.Abs(val1), math.Abs(val2))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(val1-val2) <= rel*scale
}
