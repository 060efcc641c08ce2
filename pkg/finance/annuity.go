// Package finance provides the time-value-of-money primitives used by the
// rent and purchase models: rate conversion, annuity factors, level
// payments and net present value.
package finance

import (
	"math"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

// MonthlyRate converts an annual nominal rate (decimal fraction, e.g. 0.16)
// into the monthly rate that compounds to it: (1+annual)^(1/12) - 1.
func MonthlyRate(annual float64) float64 {
	if annual == 0 {
		return 0
	}
	return math.Pow(1+annual, 1.0/constants.MonthsPerYear) - 1
}

// AnnuityFactor is the present value of a unit payment made every period for
// n periods at per-period rate r. A zero rate degenerates to n.
func AnnuityFactor(r float64, n float64) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		return n
	}
	return (1 - math.Pow(1+r, -n)) / r
}

// PMT returns the level per-period payment that fully amortizes pv over n
// periods at rate r.
func PMT(pv, r float64, n float64) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		// For zero interest, simply divide the present value by the term
		return pv / n
	}
	return pv * r / (1 - math.Pow(1+r, -n))
}

// NPV discounts flows[t] by (1+r)^t and sums them. flows[0] is undiscounted.
func NPV(r float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		total += cf / math.Pow(1+r, float64(t))
	}
	return total
}

// EquivalentPeriodicCost turns a (typically negative) present value into the
// level per-period cost with the same present value over n periods.
// A zero annuity factor yields 0 rather than a division by zero.
func EquivalentPeriodicCost(pv, r float64, n float64) float64 {
	af := AnnuityFactor(r, n)
	if af == 0 {
		return 0
	}
	eac := -pv / af
	if math.IsNaN(eac) || math.IsInf(eac, 0) {
		return 0
	}
	return eac
}
