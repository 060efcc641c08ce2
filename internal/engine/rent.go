package engine

import (
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/finance"
)

// RentPath is the per-unit breakdown of the monthly subscription.
type RentPath struct {
	PaybackMonths int `json:"paybackMonths"`

	// BaseRecovery amortizes the internal real cost over the payback horizon.
	BaseRecovery     float64 `json:"baseRecovery"`
	OverheadPerMonth float64 `json:"overheadPerMonth"`
	ServicePerMonth  float64 `json:"servicePerMonth"`

	MonthlyPriceExVAT    float64 `json:"monthlyPriceExVAT"`
	MonthlyPriceAfterTax float64 `json:"monthlyPriceAfterTax"`

	MonthlyResidualDowntime float64 `json:"monthlyResidualDowntime"`
	MonthlyResidualFreight  float64 `json:"monthlyResidualFreight"`

	// EACAfterTax is what renting costs the customer per unit and month
	// after tax, residual downtime and optional freight included.
	EACAfterTax float64 `json:"eacAfterTax"`
}

// RentPrice returns the pre-tax monthly rent price per unit for s at
// monthly rate r over the given payback horizon.
func RentPrice(s scenario.Scenario, r float64, paybackMonths int) float64 {
	return rentPath(s, r, paybackMonths).MonthlyPriceExVAT
}

func rentPath(s scenario.Scenario, r float64, paybackMonths int) RentPath {
	keep := 1 - s.TaxRate
	p := RentPath{
		PaybackMonths:    paybackMonths,
		BaseRecovery:     finance.PMT(s.RealCost, r, float64(paybackMonths)),
		OverheadPerMonth: s.OverheadPct * s.RealCost / float64(s.TermMonths),
		ServicePerMonth:  s.ServiceCostPerUnitMonth,
	}
	p.MonthlyPriceExVAT = p.BaseRecovery + p.ServicePerMonth + p.OverheadPerMonth
	p.MonthlyPriceAfterTax = p.MonthlyPriceExVAT * keep

	p.MonthlyResidualDowntime = s.DowntimeDaysYearRent * s.CostPerDownDay / constants.MonthsPerYear
	if s.IncludeFreightInRent {
		p.MonthlyResidualFreight = s.IncidentsPerYear * s.FreightPerIncident / constants.MonthsPerYear
	}
	p.EACAfterTax = p.MonthlyPriceAfterTax + (p.MonthlyResidualDowntime+p.MonthlyResidualFreight)*keep

	return p
}
