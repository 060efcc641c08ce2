// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/pkg/output"
)

// FindTerm finds the comparison for a contract term in the results slice.
// Returns a pointer to the comparison if found, nil otherwise.
func FindTerm(terms []engine.TermComparison, months int) *engine.TermComparison {
	for i := range terms {
		if terms[i].TermMonths == months {
			return &terms[i]
		}
	}
	return nil
}

// FindRow finds a report row by section and metric.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []output.Row, section, metric string) *output.Row {
	for i := range rows {
		if rows[i].Section == section && rows[i].Metric == metric {
			return &rows[i]
		}
	}
	return nil
}
