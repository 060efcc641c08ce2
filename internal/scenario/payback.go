package scenario

import (
	"sort"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
)

// termPayback maps each supported contract term to the canonical number of
// months over which the lessor recovers its internal cost.
var termPayback = map[int]int{
	constants.Term24: 15,
	constants.Term36: 20,
	constants.Term48: 24,
}

// SupportedTerms lists the contract terms, ascending.
func SupportedTerms() []int {
	terms := make([]int, 0, len(termPayback))
	for t := range termPayback {
		terms = append(terms, t)
	}
	sort.Ints(terms)
	return terms
}

// IsSupportedTerm reports whether term has a canonical payback entry.
func IsSupportedTerm(term int) bool {
	_, ok := termPayback[term]
	return ok
}

// PaybackTable returns a copy of the term to payback lookup.
func PaybackTable() map[int]int {
	out := make(map[int]int, len(termPayback))
	for k, v := range termPayback {
		out[k] = v
	}
	return out
}

// DefaultPayback returns the canonical payback for term. Terms outside the
// table recover cost over the full term.
func DefaultPayback(term int) int {
	if p, ok := termPayback[term]; ok {
		return p
	}
	return clampPayback(term, term)
}

// clampPayback saturates months into [6, term]; terms shorter than the
// floor collapse the range to the term itself.
func clampPayback(months, term int) int {
	if term < 1 {
		term = 1
	}
	lo := constants.MinPaybackMonths
	if term < lo {
		lo = term
	}
	return mathutil.ClampInt(months, lo, term)
}
