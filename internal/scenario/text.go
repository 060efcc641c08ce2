package scenario

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/numparse"
)

// ErrUnknownField is returned by ApplyText for keys that name no Scenario
// field.
var ErrUnknownField = errors.New("unknown scenario field")

type textField struct {
	apply func(s *Scenario, text string) error
}

func floatField(dst func(*Scenario) *float64, min, max float64) textField {
	return textField{apply: func(s *Scenario, text string) error {
		*dst(s) = numparse.ParseClamped(text, min, max)
		return nil
	}}
}

func intField(dst func(*Scenario) *int, min, max int) textField {
	return textField{apply: func(s *Scenario, text string) error {
		*dst(s) = numparse.ParseInt(text, min, max)
		return nil
	}}
}

func boolField(dst func(*Scenario) *bool) textField {
	return textField{apply: func(s *Scenario, text string) error {
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "1", "t", "true", "yes", "on":
			*dst(s) = true
		case "", "0", "f", "false", "no", "off":
			*dst(s) = false
		default:
			return fmt.Errorf("invalid boolean %q", text)
		}
		return nil
	}}
}

var unbounded = math.Inf(1)

// textFields maps every field key to its free-text setter and input range.
var textFields = map[string]textField{
	"currency": {apply: func(s *Scenario, text string) error {
		s.Currency = strings.ToUpper(strings.TrimSpace(text))
		return nil
	}},
	"equipKey": {apply: func(s *Scenario, text string) error {
		next, err := s.WithPreset(text)
		if err != nil {
			return err
		}
		*s = next
		return nil
	}},
	"qty":        intField(func(s *Scenario) *int { return &s.Quantity }, constants.MinQuantity, constants.MaxQuantity),
	"term":       intField(func(s *Scenario) *int { return &s.TermMonths }, 1, MaxTermMonths),
	"annualRate": floatField(func(s *Scenario) *float64 { return &s.AnnualRate }, 0, constants.MaxAnnualRate),
	"taxRate":    floatField(func(s *Scenario) *float64 { return &s.TaxRate }, 0, constants.MaxTaxRate),
	"vat":        floatField(func(s *Scenario) *float64 { return &s.VATRate }, 0, constants.MaxVATRate),
	"deprMonths": intField(func(s *Scenario) *int { return &s.DepreciationMonths },
		constants.MinDepreciationMonths, constants.MaxDepreciationMonths),

	"purchasePrice":         floatField(func(s *Scenario) *float64 { return &s.PurchasePrice }, 0, unbounded),
	"maintenancePctYear":    floatField(func(s *Scenario) *float64 { return &s.MaintenancePctYear }, 0, constants.MaxMaintenance),
	"incidentsPerYear":      floatField(func(s *Scenario) *float64 { return &s.IncidentsPerYear }, 0, unbounded),
	"freightPerIncident":    floatField(func(s *Scenario) *float64 { return &s.FreightPerIncident }, 0, unbounded),
	"costPerDownDay":        floatField(func(s *Scenario) *float64 { return &s.CostPerDownDay }, 0, unbounded),
	"downtimeDaysYear_Buy":  floatField(func(s *Scenario) *float64 { return &s.DowntimeDaysYearBuy }, 0, unbounded),
	"downtimeDaysYear_Rent": floatField(func(s *Scenario) *float64 { return &s.DowntimeDaysYearRent }, 0, unbounded),
	"bottleneckPerMonth":    floatField(func(s *Scenario) *float64 { return &s.BottleneckPerMonth }, 0, unbounded),
	"residualPct":           floatField(func(s *Scenario) *float64 { return &s.ResidualPct }, 0, constants.MaxResidual),
	"includeFreightInRent":  boolField(func(s *Scenario) *bool { return &s.IncludeFreightInRent }),

	"realCost":                floatField(func(s *Scenario) *float64 { return &s.RealCost }, 0, unbounded),
	"serviceCostPerUnitMonth": floatField(func(s *Scenario) *float64 { return &s.ServiceCostPerUnitMonth }, 0, unbounded),
	"overheadPctOnRealCost":   floatField(func(s *Scenario) *float64 { return &s.OverheadPct }, 0, constants.MaxOverhead),
	"overridePayback":         boolField(func(s *Scenario) *bool { return &s.PaybackOverride }),
	"paybackMonths": {apply: func(s *Scenario, text string) error {
		s.PaybackMonths = clampPayback(numparse.ParseInt(text, 0, MaxTermMonths), s.TermMonths)
		return nil
	}},
}

// TextFieldKeys lists the keys ApplyText accepts, sorted.
func TextFieldKeys() []string {
	keys := make([]string, 0, len(textFields))
	for k := range textFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyText returns a copy of s with free-text inputs applied, the way a
// form commits a typed value: each number is parsed with numparse and
// clamped to its field's range. Keys are applied in a fixed order so a
// preset in "equipKey" is reset first and explicit values win over it, and
// "term" lands before "paybackMonths" is clamped against it.
func (s Scenario) ApplyText(inputs map[string]string) (Scenario, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		if _, ok := textFields[k]; !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return textOrder(keys[i]) < textOrder(keys[j]) ||
			(textOrder(keys[i]) == textOrder(keys[j]) && keys[i] < keys[j])
	})

	for _, k := range keys {
		if err := textFields[k].apply(&s, inputs[k]); err != nil {
			return s, fmt.Errorf("%s: %w", k, err)
		}
	}
	return s, nil
}

func textOrder(key string) int {
	switch key {
	case "equipKey":
		return 0
	case "paybackMonths":
		return 2
	}
	return 1
}
