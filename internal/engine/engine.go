// Package engine evaluates a rent-vs-buy Scenario into comparable monthly
// figures. Every function here is pure: the same Scenario always yields the
// same Results and no reference to the input is kept.
package engine

import (
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/pkg/finance"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
	"go.uber.org/zap"
)

// Results holds every derived quantity of one evaluation.
type Results struct {
	// Scenario is the normalized input the figures were computed from.
	Scenario scenario.Scenario `json:"scenario"`

	MonthlyRate   float64 `json:"monthlyRate"`
	AnnuityFactor float64 `json:"annuityFactor"`

	Rent     RentPath     `json:"rent"`
	Purchase PurchasePath `json:"purchase"`
	Totals   Totals       `json:"totals"`

	// Advantage is nil when the purchase price does not exceed the internal
	// real cost; callers must render it as not applicable.
	Advantage      *Advantage     `json:"advantage"`
	Reconciliation Reconciliation `json:"reconciliation"`
	Margin         Margin         `json:"margin"`

	PriceBelowCost bool     `json:"priceBelowCost"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Evaluate computes Results for s. Inputs are normalized first, so any
// Scenario value is accepted.
func Evaluate(s scenario.Scenario) Results {
	s = s.Normalize()

	r := finance.MonthlyRate(s.AnnualRate)
	payback := s.EffectivePayback()

	rent := rentPath(s, r, payback)
	buy := purchasePath(s, r)
	tot := totals(s, rent, buy)

	res := Results{
		Scenario:       s,
		MonthlyRate:    r,
		AnnuityFactor:  finance.AnnuityFactor(r, float64(s.TermMonths)),
		Rent:           rent,
		Purchase:       buy,
		Totals:         tot,
		Advantage:      advantage(s, tot),
		Reconciliation: reconciliation(s, rent),
		Margin:         margin(s, rent),
		PriceBelowCost: s.PriceBelowCost(),
		Warnings:       s.Warnings(),
	}
	res.zeroNonFinite()
	return res
}

// zeroNonFinite replaces any NaN or infinite figure with 0 so Results can
// always be rendered and marshalled.
func (res *Results) zeroNonFinite() {
	figures := []*float64{
		&res.MonthlyRate,
		&res.AnnuityFactor,

		&res.Rent.BaseRecovery,
		&res.Rent.OverheadPerMonth,
		&res.Rent.ServicePerMonth,
		&res.Rent.MonthlyPriceExVAT,
		&res.Rent.MonthlyPriceAfterTax,
		&res.Rent.MonthlyResidualDowntime,
		&res.Rent.MonthlyResidualFreight,
		&res.Rent.EACAfterTax,

		&res.Purchase.MonthlyMaintenance,
		&res.Purchase.MonthlyFreight,
		&res.Purchase.MonthlyDowntime,
		&res.Purchase.MonthlyBottleneck,
		&res.Purchase.MonthlyDepreciation,
		&res.Purchase.MaintenanceAfterTax,
		&res.Purchase.FreightAfterTax,
		&res.Purchase.DowntimeAfterTax,
		&res.Purchase.BottleneckAfterTax,
		&res.Purchase.DepreciationTaxShield,
		&res.Purchase.ResidualValue,
		&res.Purchase.PresentValueAfterTax,
		&res.Purchase.EACAfterTax,

		&res.Totals.RentMonthExVAT,
		&res.Totals.RentMonthInclVAT,
		&res.Totals.BuyEACAfterTax,
		&res.Totals.RentEACAfterTax,

		&res.Reconciliation.SaleOneOffPerUnit,
		&res.Reconciliation.RentTotalOverTermPerUnit,

		&res.Margin.CostOverTerm,
		&res.Margin.GrossRevenueOverTerm,
		&res.Margin.ContractPerUnit,
		&res.Margin.ContractTotal,
		&res.Margin.ContractRate,
		&res.Margin.GrossRevenueUntilPayback,
		&res.Margin.CostUntilPayback,
		&res.Margin.UntilPaybackPerUnit,
	}
	if res.Advantage != nil {
		figures = append(figures, &res.Advantage.PerMonthTotal, &res.Advantage.PerUnit)
	}
	for _, f := range figures {
		*f = mathutil.FiniteOr(*f, 0)
	}
	for i := range res.Purchase.CashFlows {
		res.Purchase.CashFlows[i] = mathutil.FiniteOr(res.Purchase.CashFlows[i], 0)
	}
	if res.Advantage != nil {
		res.Advantage.RentCheaper = res.Advantage.PerMonthTotal > 0
	}
}

// EvaluateWithLogger is Evaluate plus structured logging of the headline
// figures and of every business-rule warning.
func EvaluateWithLogger(logger *zap.Logger, s scenario.Scenario) Results {
	if logger == nil {
		logger = zap.NewNop()
	}

	res := Evaluate(s)

	for _, warning := range res.Warnings {
		logger.Warn("scenario warning: "+warning,
			zap.String("op", "engine.Evaluate"),
			zap.String("equipment", res.Scenario.EquipmentKey),
		)
	}

	logger.Debug("scenario evaluated",
		zap.String("op", "engine.Evaluate"),
		zap.Int("term", res.Scenario.TermMonths),
		zap.Int("payback", res.Rent.PaybackMonths),
		zap.Float64("rent_per_unit_ex_vat", res.Rent.MonthlyPriceExVAT),
		zap.Float64("buy_eac_per_unit", res.Purchase.EACAfterTax),
		zap.Bool("advantage_applicable", res.Advantage != nil),
	)

	return res
}

// TermComparison summarizes one scenario evaluated at a given term.
type TermComparison struct {
	TermMonths            int        `json:"term"`
	PaybackMonths         int        `json:"paybackMonths"`
	RentPerUnitExVAT      float64    `json:"rentPerUnitExVAT"`
	RentEACPerUnit        float64    `json:"rentEACPerUnit"`
	BuyEACPerUnit         float64    `json:"buyEACPerUnit"`
	Advantage             *Advantage `json:"advantage"`
	ContractMarginPerUnit float64    `json:"contractMarginPerUnit"`
	ContractMarginRate    float64    `json:"contractMarginRate"`
}

// CompareTerms evaluates s at every supported term. A manual payback
// override is kept but re-clamped to each term.
func CompareTerms(s scenario.Scenario) []TermComparison {
	terms := scenario.SupportedTerms()
	out := make([]TermComparison, 0, len(terms))
	for _, term := range terms {
		variant := s
		variant.TermMonths = term
		res := Evaluate(variant)
		out = append(out, TermComparison{
			TermMonths:            term,
			PaybackMonths:         res.Rent.PaybackMonths,
			RentPerUnitExVAT:      res.Rent.MonthlyPriceExVAT,
			RentEACPerUnit:        res.Rent.EACAfterTax,
			BuyEACPerUnit:         res.Purchase.EACAfterTax,
			Advantage:             res.Advantage,
			ContractMarginPerUnit: res.Margin.ContractPerUnit,
			ContractMarginRate:    res.Margin.ContractRate,
		})
	}
	return out
}
