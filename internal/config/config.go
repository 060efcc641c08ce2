// Package config defines the data structures related to configuration and
// includes functions for loading and validating a scenario file.
package config

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/numparse"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for rent-vs-buy.
type Configuration struct {
	Scenario scenario.Scenario `mapstructure:"scenario" yaml:"scenario"`
	Logging  LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format,omitempty"`       // pretty, csv, json, xlsx
	File      string `mapstructure:"file" yaml:"file,omitempty"`           // xlsx target
	ShareBase string `mapstructure:"shareBase" yaml:"shareBase,omitempty"` // base URL for share links
}

// Default returns the configuration used when no scenario file exists.
func Default() *Configuration {
	return &Configuration{
		Scenario: scenario.Default(),
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Output:   OutputConfig{Format: constants.OutputFormatPretty},
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys missing from the file keep their defaults and
// any key can be overridden through RENTVSBUY_* environment variables,
// e.g. RENTVSBUY_SCENARIO_QTY=25.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return unmarshal(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r, applying
// the same defaults and environment overrides as LoadConfiguration.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return unmarshal(v)
}

// LoadDefaults returns the default configuration with environment overrides
// applied, for runs without a scenario file.
func LoadDefaults() (*Configuration, error) {
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only reaches keys viper knows about, so register every
	// key with its default.
	def := Default()
	setDefaults(v, "scenario", reflect.ValueOf(def.Scenario))
	setDefaults(v, "logging", reflect.ValueOf(def.Logging))
	setDefaults(v, "output", reflect.ValueOf(def.Output))

	return v
}

func setDefaults(v *viper.Viper, prefix string, value reflect.Value) {
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		v.SetDefault(prefix+"."+key, value.Field(i).Interface())
	}
}

func unmarshal(v *viper.Viper) (*Configuration, error) {
	if err := applyPresetDefaults(v); err != nil {
		return nil, err
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		freeTextNumberHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &configuration, nil
}

// applyPresetDefaults swaps the scenario defaults for the preset named by
// scenario.equipKey, so preset fields the file or environment leaves out
// follow the equipment type instead of the PDT defaults.
func applyPresetDefaults(v *viper.Viper) error {
	key := strings.TrimSpace(v.GetString("scenario.equipKey"))
	if key == "" {
		return nil
	}
	base, err := scenario.Default().WithPreset(key)
	if err != nil {
		return fmt.Errorf("invalid scenario.equipKey, %w", err)
	}
	setDefaults(v, "scenario", reflect.ValueOf(base))
	return nil
}

// freeTextNumberHook reads string values destined for numeric fields with
// numparse, so scenario files and environment variables may use locale
// formats such as "1.234,56".
func freeTextNumberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	text, ok := data.(string)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		return numparse.Parse(text), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(math.Round(numparse.Parse(text))), nil
	}
	return data, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("output: %v; using %s", err, constants.OutputFormatPretty))
	}
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		warnings = append(warnings, fmt.Sprintf("logging: %v", err))
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("logging: %v", err))
	}

	warnings = append(warnings, ScenarioWarnings(c.Scenario)...)
	return warnings
}

// ScenarioWarnings reports inputs that will be clamped before evaluation,
// followed by the scenario's business-rule warnings.
func ScenarioWarnings(s scenario.Scenario) []string {
	ranges := []validation.FieldRange{
		{Name: "qty", Value: float64(s.Quantity), Min: constants.MinQuantity, Max: constants.MaxQuantity},
		{Name: "annualRate", Value: s.AnnualRate, Min: 0, Max: constants.MaxAnnualRate},
		{Name: "taxRate", Value: s.TaxRate, Min: 0, Max: constants.MaxTaxRate},
		{Name: "vat", Value: s.VATRate, Min: 0, Max: constants.MaxVATRate},
		{Name: "maintenancePctYear", Value: s.MaintenancePctYear, Min: 0, Max: constants.MaxMaintenance},
		{Name: "residualPct", Value: s.ResidualPct, Min: 0, Max: constants.MaxResidual},
		{Name: "overheadPctOnRealCost", Value: s.OverheadPct, Min: 0, Max: constants.MaxOverhead},
		{Name: "deprMonths", Value: float64(s.DepreciationMonths),
			Min: constants.MinDepreciationMonths, Max: constants.MaxDepreciationMonths},
	}
	if s.PaybackOverride {
		ranges = append(ranges, validation.FieldRange{
			Name:  "paybackMonths",
			Value: float64(s.PaybackMonths),
			Min:   math.Min(constants.MinPaybackMonths, float64(s.TermMonths)),
			Max:   float64(s.TermMonths),
		})
	}
	warnings := validation.ValidateRanges(ranges)

	amounts := []struct {
		name  string
		value float64
	}{
		{"purchasePrice", s.PurchasePrice},
		{"incidentsPerYear", s.IncidentsPerYear},
		{"freightPerIncident", s.FreightPerIncident},
		{"downtimeDaysYear_Buy", s.DowntimeDaysYearBuy},
		{"downtimeDaysYear_Rent", s.DowntimeDaysYearRent},
		{"costPerDownDay", s.CostPerDownDay},
		{"bottleneckPerMonth", s.BottleneckPerMonth},
		{"realCost", s.RealCost},
		{"serviceCostPerUnitMonth", s.ServiceCostPerUnitMonth},
	}
	for _, a := range amounts {
		if w := validation.ValidateNonNegative(a.name, a.value); w != "" {
			warnings = append(warnings, w)
			continue
		}
		if w := validation.ValidateRange(validation.FieldRange{
			Name: a.name, Value: a.value, Min: 0, Max: constants.MaxAmount,
		}); w != "" {
			warnings = append(warnings, w)
		}
	}

	return append(warnings, s.Warnings()...)
}
