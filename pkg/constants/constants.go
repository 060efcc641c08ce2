// Package constants provides shared constants for the rent-vs-buy application.
package constants

import "time"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MaxAmount caps every money amount and yearly count in a scenario.
	// At MaxQuantity units over the longest term the totals stay finite.
	MaxAmount = 1e12
)

// Contract terms and payback bounds, in months.
const (
	Term24 = 24
	Term36 = 36
	Term48 = 48

	// MinPaybackMonths is the floor for a manually overridden payback horizon.
	MinPaybackMonths = 6

	MinDepreciationMonths = 12
	MaxDepreciationMonths = 84
)

// Input ranges, mirroring the sliders and text inputs offered to sales users.
const (
	MinQuantity = 1
	MaxQuantity = 10000

	MaxAnnualRate  = 0.40
	MaxTaxRate     = 0.35
	MaxVATRate     = 0.23
	MaxMaintenance = 0.25
	MaxResidual    = 0.50
	MaxOverhead    = 0.20
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX writes a spreadsheet to the configured output file
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default scenario file name
	DefaultConfigFile = "scenario.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultXLSXFile is where xlsx output lands when no file is given
	DefaultXLSXFile = "rent-vs-buy.xlsx"

	// EnvPrefix namespaces environment overrides read through viper
	EnvPrefix = "RENTVSBUY"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodyBytes caps scenario request bodies (64 KB)
	DefaultMaxBodyBytes int64 = 64 * 1024

	// DefaultShutdownGrace bounds graceful shutdown of the API
	DefaultShutdownGrace = 10 * time.Second

	// DefaultServiceName identifies the process in traces and metrics
	DefaultServiceName = "rent-vs-buy"
)
