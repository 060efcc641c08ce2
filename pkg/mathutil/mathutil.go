// Package mathutil provides common mathematical utility functions.
package mathutil

import "math"

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// FiniteOr returns val when it is finite and fallback otherwise.
func FiniteOr(val, fallback float64) float64 {
	if IsFinite(val) {
		return val
	}
	return fallback
}

// Clamp saturates val into [lo, hi]. NaN collapses to lo.
func Clamp(val, lo, hi float64) float64 {
	if math.IsNaN(val) || val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampInt saturates val into [lo, hi].
func ClampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
