package engine

import (
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/finance"
)

// PurchasePath is the per-unit breakdown of buying the equipment outright.
// Monthly figures are pre-tax unless the name says otherwise.
type PurchasePath struct {
	MonthlyMaintenance  float64 `json:"monthlyMaintenance"`
	MonthlyFreight      float64 `json:"monthlyFreight"`
	MonthlyDowntime     float64 `json:"monthlyDowntime"`
	MonthlyBottleneck   float64 `json:"monthlyBottleneck"`
	MonthlyDepreciation float64 `json:"monthlyDepreciation"`

	MaintenanceAfterTax   float64 `json:"maintenanceAfterTax"`
	FreightAfterTax       float64 `json:"freightAfterTax"`
	DowntimeAfterTax      float64 `json:"downtimeAfterTax"`
	BottleneckAfterTax    float64 `json:"bottleneckAfterTax"`
	DepreciationTaxShield float64 `json:"depreciationTaxShield"`

	ResidualValue float64   `json:"residualValue"`
	CashFlows     []float64 `json:"cashFlows"`

	// PresentValueAfterTax is the NPV of CashFlows; negative for a net cost.
	PresentValueAfterTax float64 `json:"presentValueAfterTax"`
	// EACAfterTax is the equivalent monthly after-tax cost per unit.
	EACAfterTax float64 `json:"eacAfterTax"`
}

// PurchaseCashFlows builds the per-unit after-tax cash-flow vector of the
// purchase path, indexed 0..term. s is expected to be normalized.
func PurchaseCashFlows(s scenario.Scenario) []float64 {
	return purchaseBreakdown(s).CashFlows
}

func purchaseBreakdown(s scenario.Scenario) PurchasePath {
	keep := 1 - s.TaxRate
	p := PurchasePath{
		MonthlyMaintenance:  s.PurchasePrice * s.MaintenancePctYear / constants.MonthsPerYear,
		MonthlyFreight:      s.IncidentsPerYear * s.FreightPerIncident / constants.MonthsPerYear,
		MonthlyDowntime:     s.DowntimeDaysYearBuy * s.CostPerDownDay / constants.MonthsPerYear,
		MonthlyBottleneck:   s.BottleneckPerMonth,
		MonthlyDepreciation: s.PurchasePrice * (1 - s.ResidualPct) / float64(s.DepreciationMonths),
		ResidualValue:       s.PurchasePrice * s.ResidualPct,
	}

	p.MaintenanceAfterTax = p.MonthlyMaintenance * keep
	p.FreightAfterTax = p.MonthlyFreight * keep
	p.DowntimeAfterTax = p.MonthlyDowntime * keep
	p.BottleneckAfterTax = p.MonthlyBottleneck * keep
	// The shield runs for every month of the term regardless of whether the
	// asset is already written off.
	p.DepreciationTaxShield = p.MonthlyDepreciation * s.TaxRate

	operating := -(p.MaintenanceAfterTax + p.FreightAfterTax + p.DowntimeAfterTax + p.BottleneckAfterTax) +
		p.DepreciationTaxShield

	flows := make([]float64, s.TermMonths+1)
	flows[0] = -s.PurchasePrice
	for t := 1; t <= s.TermMonths; t++ {
		flows[t] = operating
	}
	// Terminal resale shares the period-term discount factor.
	flows[s.TermMonths] += p.ResidualValue
	p.CashFlows = flows

	return p
}

// purchasePath discounts the purchase cash flows at monthly rate r and
// annualizes them back into an equivalent monthly cost.
func purchasePath(s scenario.Scenario, r float64) PurchasePath {
	p := purchaseBreakdown(s)
	p.PresentValueAfterTax = finance.NPV(r, p.CashFlows)
	p.EACAfterTax = finance.EquivalentPeriodicCost(p.PresentValueAfterTax, r, float64(s.TermMonths))
	return p
}
