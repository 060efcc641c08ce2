// Package scenario defines the full input set of one rent-vs-buy evaluation,
// together with its documented ranges, the equipment presets and the
// payback lookup that the pricing model consumes.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
	"golang.org/x/text/currency"
)

// Sentinel validation errors; Validate wraps them with detail.
var (
	ErrUnsupportedTerm = errors.New("unsupported contract term")
	ErrUnknownPreset   = errors.New("unknown equipment preset")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrNonFinite       = errors.New("non-finite numeric input")
)

// MaxTermMonths bounds Normalize for terms outside the supported set.
const MaxTermMonths = 120

// Scenario holds every input driving one evaluation. The json and
// mapstructure names match the keys used by share links and scenario files.
type Scenario struct {
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// EquipmentKey names the preset. Scenario files, request bodies and
	// ApplyText load that preset's figures when it is set; assigning the
	// field directly does not, use WithPreset.
	EquipmentKey string `json:"equipKey" mapstructure:"equipKey" yaml:"equipKey"`

	Quantity   int     `json:"qty" mapstructure:"qty" yaml:"qty"`
	TermMonths int     `json:"term" mapstructure:"term" yaml:"term"`
	AnnualRate float64 `json:"annualRate" mapstructure:"annualRate" yaml:"annualRate"`
	TaxRate    float64 `json:"taxRate" mapstructure:"taxRate" yaml:"taxRate"`
	VATRate    float64 `json:"vat" mapstructure:"vat" yaml:"vat"`

	PurchasePrice       float64 `json:"purchasePrice" mapstructure:"purchasePrice" yaml:"purchasePrice"`
	MaintenancePctYear  float64 `json:"maintenancePctYear" mapstructure:"maintenancePctYear" yaml:"maintenancePctYear"`
	IncidentsPerYear    float64 `json:"incidentsPerYear" mapstructure:"incidentsPerYear" yaml:"incidentsPerYear"`
	FreightPerIncident  float64 `json:"freightPerIncident" mapstructure:"freightPerIncident" yaml:"freightPerIncident"`
	DowntimeDaysYearBuy float64 `json:"downtimeDaysYear_Buy" mapstructure:"downtimeDaysYear_Buy" yaml:"downtimeDaysYear_Buy"`
	ResidualPct         float64 `json:"residualPct" mapstructure:"residualPct" yaml:"residualPct"`
	DepreciationMonths  int     `json:"deprMonths" mapstructure:"deprMonths" yaml:"deprMonths"`
	CostPerDownDay      float64 `json:"costPerDownDay" mapstructure:"costPerDownDay" yaml:"costPerDownDay"`
	BottleneckPerMonth  float64 `json:"bottleneckPerMonth" mapstructure:"bottleneckPerMonth" yaml:"bottleneckPerMonth"`

	DowntimeDaysYearRent float64 `json:"downtimeDaysYear_Rent" mapstructure:"downtimeDaysYear_Rent" yaml:"downtimeDaysYear_Rent"`
	IncludeFreightInRent bool    `json:"includeFreightInRent" mapstructure:"includeFreightInRent" yaml:"includeFreightInRent"`

	RealCost                float64 `json:"realCost" mapstructure:"realCost" yaml:"realCost"`
	ServiceCostPerUnitMonth float64 `json:"serviceCostPerUnitMonth" mapstructure:"serviceCostPerUnitMonth" yaml:"serviceCostPerUnitMonth"`
	OverheadPct             float64 `json:"overheadPctOnRealCost" mapstructure:"overheadPctOnRealCost" yaml:"overheadPctOnRealCost"`
	PaybackOverride         bool    `json:"overridePayback" mapstructure:"overridePayback" yaml:"overridePayback"`
	PaybackMonths           int     `json:"paybackMonths" mapstructure:"paybackMonths" yaml:"paybackMonths"`
}

// Default returns the scenario a new session starts from: the PDT preset on
// a 36 month contract.
func Default() Scenario {
	s := Scenario{
		Currency:                "EUR",
		Quantity:                10,
		TermMonths:              constants.Term36,
		AnnualRate:              0.16,
		TaxRate:                 0.21,
		VATRate:                 0.23,
		DepreciationMonths:      36,
		CostPerDownDay:          300,
		BottleneckPerMonth:      0,
		ServiceCostPerUnitMonth: 12,
		OverheadPct:             0.04,
	}
	s.PaybackMonths = DefaultPayback(s.TermMonths)
	// PDT is always present in the preset table.
	s, _ = s.WithPreset("PDT")
	return s
}

// Normalize returns a copy with every field saturated into its documented
// range. It never fails; out-of-range inputs are clamped, not rejected.
func (s Scenario) Normalize() Scenario {
	n := s

	n.Currency = strings.ToUpper(strings.TrimSpace(n.Currency))
	if n.Currency == "" {
		n.Currency = "EUR"
	}
	n.EquipmentKey = strings.ToUpper(strings.TrimSpace(n.EquipmentKey))

	n.Quantity = mathutil.ClampInt(n.Quantity, constants.MinQuantity, constants.MaxQuantity)
	n.TermMonths = mathutil.ClampInt(n.TermMonths, 1, MaxTermMonths)

	n.AnnualRate = mathutil.Clamp(n.AnnualRate, 0, constants.MaxAnnualRate)
	n.TaxRate = mathutil.Clamp(n.TaxRate, 0, constants.MaxTaxRate)
	n.VATRate = mathutil.Clamp(n.VATRate, 0, constants.MaxVATRate)
	n.MaintenancePctYear = mathutil.Clamp(n.MaintenancePctYear, 0, constants.MaxMaintenance)
	n.ResidualPct = mathutil.Clamp(n.ResidualPct, 0, constants.MaxResidual)
	n.OverheadPct = mathutil.Clamp(n.OverheadPct, 0, constants.MaxOverhead)

	n.PurchasePrice = amount(n.PurchasePrice)
	n.IncidentsPerYear = amount(n.IncidentsPerYear)
	n.FreightPerIncident = amount(n.FreightPerIncident)
	n.DowntimeDaysYearBuy = amount(n.DowntimeDaysYearBuy)
	n.DowntimeDaysYearRent = amount(n.DowntimeDaysYearRent)
	n.CostPerDownDay = amount(n.CostPerDownDay)
	n.BottleneckPerMonth = amount(n.BottleneckPerMonth)
	n.RealCost = amount(n.RealCost)
	n.ServiceCostPerUnitMonth = amount(n.ServiceCostPerUnitMonth)

	n.DepreciationMonths = mathutil.ClampInt(n.DepreciationMonths,
		constants.MinDepreciationMonths, constants.MaxDepreciationMonths)
	n.PaybackMonths = clampPayback(n.PaybackMonths, n.TermMonths)

	return n
}

// amount clamps a money amount or yearly count into [0, MaxAmount].
// Non-finite values become 0.
func amount(v float64) float64 {
	if !mathutil.IsFinite(v) {
		return 0
	}
	return mathutil.Clamp(v, 0, constants.MaxAmount)
}

// Validate reports inputs that clamping cannot repair: a term outside the
// supported set, an unknown preset key, a malformed currency code or a
// non-finite number. An empty preset key denotes a custom configuration.
func (s Scenario) Validate() error {
	if !IsSupportedTerm(s.TermMonths) {
		return fmt.Errorf("%w: %d months (supported: %v)", ErrUnsupportedTerm, s.TermMonths, SupportedTerms())
	}

	key := strings.ToUpper(strings.TrimSpace(s.EquipmentKey))
	if key != "" {
		if _, ok := LookupPreset(key); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPreset, s.EquipmentKey)
		}
	}

	code := strings.ToUpper(strings.TrimSpace(s.Currency))
	if code != "" {
		if _, err := currency.ParseISO(code); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, s.Currency)
		}
	}

	for name, v := range s.numericFields() {
		if !mathutil.IsFinite(v) {
			return fmt.Errorf("%w: %s", ErrNonFinite, name)
		}
	}

	return nil
}

func (s Scenario) numericFields() map[string]float64 {
	return map[string]float64{
		"annualRate":              s.AnnualRate,
		"taxRate":                 s.TaxRate,
		"vat":                     s.VATRate,
		"purchasePrice":           s.PurchasePrice,
		"maintenancePctYear":      s.MaintenancePctYear,
		"incidentsPerYear":        s.IncidentsPerYear,
		"freightPerIncident":      s.FreightPerIncident,
		"downtimeDaysYear_Buy":    s.DowntimeDaysYearBuy,
		"residualPct":             s.ResidualPct,
		"costPerDownDay":          s.CostPerDownDay,
		"bottleneckPerMonth":      s.BottleneckPerMonth,
		"downtimeDaysYear_Rent":   s.DowntimeDaysYearRent,
		"realCost":                s.RealCost,
		"serviceCostPerUnitMonth": s.ServiceCostPerUnitMonth,
		"overheadPctOnRealCost":   s.OverheadPct,
	}
}

// PriceBelowCost reports the business-rule violation where the customer's
// purchase price does not exceed the lessor's internal real cost.
func (s Scenario) PriceBelowCost() bool {
	return s.PurchasePrice <= s.RealCost
}

// Warnings returns the recoverable business-rule warnings for s. They never
// stop an evaluation.
func (s Scenario) Warnings() []string {
	var warnings []string

	if s.PriceBelowCost() {
		warnings = append(warnings, fmt.Sprintf(
			"purchase price %.2f must exceed internal real cost %.2f; check currency and units",
			s.PurchasePrice, s.RealCost))
	}

	if s.DepreciationMonths < s.TermMonths && s.TaxRate > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"depreciation horizon of %d months is shorter than the %d month term; the tax shield is still applied every month of the term",
			s.DepreciationMonths, s.TermMonths))
	}

	return warnings
}

// EffectivePayback returns the payback horizon the rent model uses: the
// canonical lookup for the term, or the manual override clamped to
// [6, term].
func (s Scenario) EffectivePayback() int {
	if s.PaybackOverride {
		return clampPayback(s.PaybackMonths, s.TermMonths)
	}
	return DefaultPayback(s.TermMonths)
}
