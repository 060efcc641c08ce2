package scenario

import (
	"fmt"
	"sort"
	"strings"
)

// Preset is the equipment-specific sub-record of a Scenario. Selecting a
// preset overwrites exactly these fields and nothing else.
type Preset struct {
	Label                string  `json:"label" yaml:"label"`
	PurchasePrice        float64 `json:"purchasePrice" yaml:"purchasePrice"`
	RealCost             float64 `json:"realCost" yaml:"realCost"`
	MaintenancePctYear   float64 `json:"maintenancePctYear" yaml:"maintenancePctYear"`
	IncidentsPerYear     float64 `json:"incidentsPerYear" yaml:"incidentsPerYear"`
	FreightPerIncident   float64 `json:"freightPerIncident" yaml:"freightPerIncident"`
	DowntimeDaysYearBuy  float64 `json:"downtimeDaysYear_Buy" yaml:"downtimeDaysYear_Buy"`
	DowntimeDaysYearRent float64 `json:"downtimeDaysYear_Rent" yaml:"downtimeDaysYear_Rent"`
	ResidualPct          float64 `json:"residualPct" yaml:"residualPct"`
}

var presets = map[string]Preset{
	"PDT": {
		Label:                "Data collector (PDT)",
		PurchasePrice:        1200,
		RealCost:             800,
		MaintenancePctYear:   0.08,
		IncidentsPerYear:     1.2,
		FreightPerIncident:   60,
		DowntimeDaysYearBuy:  3,
		DowntimeDaysYearRent: 0.5,
		ResidualPct:          0.2,
	},
	"HHT": {
		Label:                "Handheld terminal",
		PurchasePrice:        1100,
		RealCost:             760,
		MaintenancePctYear:   0.08,
		IncidentsPerYear:     1.1,
		FreightPerIncident:   50,
		DowntimeDaysYearBuy:  2.5,
		DowntimeDaysYearRent: 0.5,
		ResidualPct:          0.18,
	},
	"PRN": {
		Label:                "Industrial printer",
		PurchasePrice:        2000,
		RealCost:             1400,
		MaintenancePctYear:   0.10,
		IncidentsPerYear:     1.4,
		FreightPerIncident:   80,
		DowntimeDaysYearBuy:  2,
		DowntimeDaysYearRent: 0.3,
		ResidualPct:          0.22,
	},
	"TAB": {
		Label:                "Rugged tablet",
		PurchasePrice:        900,
		RealCost:             600,
		MaintenancePctYear:   0.07,
		IncidentsPerYear:     0.8,
		FreightPerIncident:   40,
		DowntimeDaysYearBuy:  1.5,
		DowntimeDaysYearRent: 0.3,
		ResidualPct:          0.15,
	},
}

// LookupPreset returns the preset registered under key (case-insensitive).
func LookupPreset(key string) (Preset, bool) {
	p, ok := presets[strings.ToUpper(strings.TrimSpace(key))]
	return p, ok
}

// PresetKeys lists the registered preset keys in sorted order.
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Presets returns a copy of the preset table.
func Presets() map[string]Preset {
	out := make(map[string]Preset, len(presets))
	for k, v := range presets {
		out[k] = v
	}
	return out
}

// WithPreset returns a copy of s with the preset sub-record for key applied
// in one assignment. Quantity, term, rates and internal costs other than
// the real cost are left untouched.
func (s Scenario) WithPreset(key string) (Scenario, error) {
	p, ok := LookupPreset(key)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	s.EquipmentKey = strings.ToUpper(strings.TrimSpace(key))
	s.PurchasePrice = p.PurchasePrice
	s.RealCost = p.RealCost
	s.MaintenancePctYear = p.MaintenancePctYear
	s.IncidentsPerYear = p.IncidentsPerYear
	s.FreightPerIncident = p.FreightPerIncident
	s.DowntimeDaysYearBuy = p.DowntimeDaysYearBuy
	s.DowntimeDaysYearRent = p.DowntimeDaysYearRent
	s.ResidualPct = p.ResidualPct
	return s, nil
}
