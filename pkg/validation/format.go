// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/rent-vs-buy/pkg/constants"
)

// SupportedOutputFormats lists the renderers the CLI can write.
var SupportedOutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatXLSX,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	for _, f := range SupportedOutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, got %s",
		strings.Join(SupportedOutputFormats, ", "), format)
}

// ValidateLogLevel checks a zap level name. An empty level means the default.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("expected log level of debug, info, warn or error, got %s", level)
}

// ValidateLogFormat checks a zap encoding name. An empty format means json.
func ValidateLogFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("expected log format of json or console, got %s", format)
}
