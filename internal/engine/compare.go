package engine

import "github.com/iwvelando/rent-vs-buy/internal/scenario"

// Totals aggregates the per-unit figures over the whole quantity.
type Totals struct {
	RentMonthExVAT   float64 `json:"rentMonthExVAT"`
	RentMonthInclVAT float64 `json:"rentMonthInclVAT"`
	BuyEACAfterTax   float64 `json:"buyEACAfterTax"`
	RentEACAfterTax  float64 `json:"rentEACAfterTax"`
}

// Advantage is the monthly after-tax saving of renting over buying.
// Positive values mean renting is cheaper.
type Advantage struct {
	PerMonthTotal float64 `json:"perMonthTotal"`
	PerUnit       float64 `json:"perUnit"`
	RentCheaper   bool    `json:"rentCheaper"`
}

// Reconciliation compares gross totals per unit with no tax or discounting.
type Reconciliation struct {
	SaleOneOffPerUnit        float64 `json:"saleOneOffPerUnit"`
	RentTotalOverTermPerUnit float64 `json:"rentTotalOverTermPerUnit"`
}

// Margin is the lessor's internal view of the contract, per unit unless
// noted.
type Margin struct {
	CostOverTerm         float64 `json:"costOverTerm"`
	GrossRevenueOverTerm float64 `json:"grossRevenueOverTerm"`
	ContractPerUnit      float64 `json:"contractPerUnit"`
	ContractTotal        float64 `json:"contractTotal"`
	ContractRate         float64 `json:"contractRate"`

	GrossRevenueUntilPayback float64 `json:"grossRevenueUntilPayback"`
	CostUntilPayback         float64 `json:"costUntilPayback"`
	UntilPaybackPerUnit      float64 `json:"untilPaybackPerUnit"`
}

func totals(s scenario.Scenario, rent RentPath, buy PurchasePath) Totals {
	qty := float64(s.Quantity)
	rentExVAT := rent.MonthlyPriceExVAT * qty
	// VAT only ever reaches the displayed invoice figure.
	return Totals{
		RentMonthExVAT:   rentExVAT,
		RentMonthInclVAT: rentExVAT * (1 + s.VATRate),
		BuyEACAfterTax:   buy.EACAfterTax * qty,
		RentEACAfterTax:  rent.EACAfterTax * qty,
	}
}

// advantage returns nil when the price-vs-cost rule is violated, since the
// comparison would be misleading.
func advantage(s scenario.Scenario, t Totals) *Advantage {
	if s.PriceBelowCost() {
		return nil
	}
	diff := t.BuyEACAfterTax - t.RentEACAfterTax
	return &Advantage{
		PerMonthTotal: diff,
		PerUnit:       diff / float64(s.Quantity),
		RentCheaper:   diff > 0,
	}
}

func reconciliation(s scenario.Scenario, rent RentPath) Reconciliation {
	return Reconciliation{
		SaleOneOffPerUnit:        s.PurchasePrice,
		RentTotalOverTermPerUnit: rent.MonthlyPriceExVAT * float64(s.TermMonths),
	}
}

func margin(s scenario.Scenario, rent RentPath) Margin {
	term := float64(s.TermMonths)
	payback := float64(rent.PaybackMonths)
	running := rent.ServicePerMonth + rent.OverheadPerMonth

	m := Margin{
		CostOverTerm:             s.RealCost + running*term,
		GrossRevenueOverTerm:     rent.MonthlyPriceExVAT * term,
		GrossRevenueUntilPayback: rent.MonthlyPriceExVAT * payback,
		CostUntilPayback:         s.RealCost + running*payback,
	}
	m.ContractPerUnit = m.GrossRevenueOverTerm - m.CostOverTerm
	m.ContractTotal = m.ContractPerUnit * float64(s.Quantity)
	if m.GrossRevenueOverTerm > 0 {
		m.ContractRate = m.ContractPerUnit / m.GrossRevenueOverTerm
	}
	m.UntilPaybackPerUnit = m.GrossRevenueUntilPayback - m.CostUntilPayback
	return m
}
