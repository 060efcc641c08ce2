// Package output provides utilities for formatting and displaying evaluation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind tells renderers how to display a Row value.
type Kind int

const (
	Money Kind = iota
	Percent
	Months
	Count
	Factor
)

// Row is one labelled figure of a report.
type Row struct {
	Section string
	Metric  string
	Value   float64
	Kind    Kind
	// NotApplicable marks figures that must be shown as "n/a".
	NotApplicable bool
}

// Rows flattens res into the report shown by every tabular renderer.
func Rows(res engine.Results) []Row {
	s := res.Scenario
	rows := []Row{
		{Section: "inputs", Metric: "quantity", Value: float64(s.Quantity), Kind: Count},
		{Section: "inputs", Metric: "term", Value: float64(s.TermMonths), Kind: Months},
		{Section: "inputs", Metric: "annual rate", Value: s.AnnualRate, Kind: Percent},
		{Section: "inputs", Metric: "monthly rate", Value: res.MonthlyRate, Kind: Percent},
		{Section: "inputs", Metric: "annuity factor", Value: res.AnnuityFactor, Kind: Factor},

		{Section: "rent", Metric: "payback", Value: float64(res.Rent.PaybackMonths), Kind: Months},
		{Section: "rent", Metric: "base recovery per unit", Value: res.Rent.BaseRecovery, Kind: Money},
		{Section: "rent", Metric: "overhead per unit", Value: res.Rent.OverheadPerMonth, Kind: Money},
		{Section: "rent", Metric: "service per unit", Value: res.Rent.ServicePerMonth, Kind: Money},
		{Section: "rent", Metric: "price per unit ex VAT", Value: res.Rent.MonthlyPriceExVAT, Kind: Money},
		{Section: "rent", Metric: "EAC per unit after tax", Value: res.Rent.EACAfterTax, Kind: Money},

		{Section: "buy", Metric: "maintenance per unit", Value: res.Purchase.MonthlyMaintenance, Kind: Money},
		{Section: "buy", Metric: "freight per unit", Value: res.Purchase.MonthlyFreight, Kind: Money},
		{Section: "buy", Metric: "downtime per unit", Value: res.Purchase.MonthlyDowntime, Kind: Money},
		{Section: "buy", Metric: "depreciation tax shield", Value: res.Purchase.DepreciationTaxShield, Kind: Money},
		{Section: "buy", Metric: "residual value", Value: res.Purchase.ResidualValue, Kind: Money},
		{Section: "buy", Metric: "present value after tax", Value: res.Purchase.PresentValueAfterTax, Kind: Money},
		{Section: "buy", Metric: "EAC per unit after tax", Value: res.Purchase.EACAfterTax, Kind: Money},

		{Section: "totals", Metric: "rent per month ex VAT", Value: res.Totals.RentMonthExVAT, Kind: Money},
		{Section: "totals", Metric: "rent per month incl VAT", Value: res.Totals.RentMonthInclVAT, Kind: Money},
		{Section: "totals", Metric: "buy EAC per month", Value: res.Totals.BuyEACAfterTax, Kind: Money},
		{Section: "totals", Metric: "rent EAC per month", Value: res.Totals.RentEACAfterTax, Kind: Money},
	}

	if res.Advantage != nil {
		rows = append(rows,
			Row{Section: "advantage", Metric: "per month", Value: res.Advantage.PerMonthTotal, Kind: Money},
			Row{Section: "advantage", Metric: "per unit", Value: res.Advantage.PerUnit, Kind: Money},
		)
	} else {
		rows = append(rows,
			Row{Section: "advantage", Metric: "per month", Kind: Money, NotApplicable: true},
			Row{Section: "advantage", Metric: "per unit", Kind: Money, NotApplicable: true},
		)
	}

	rows = append(rows,
		Row{Section: "reconciliation", Metric: "sale one-off per unit", Value: res.Reconciliation.SaleOneOffPerUnit, Kind: Money},
		Row{Section: "reconciliation", Metric: "rent over term per unit", Value: res.Reconciliation.RentTotalOverTermPerUnit, Kind: Money},

		Row{Section: "margin", Metric: "cost over term", Value: res.Margin.CostOverTerm, Kind: Money},
		Row{Section: "margin", Metric: "revenue over term", Value: res.Margin.GrossRevenueOverTerm, Kind: Money},
		Row{Section: "margin", Metric: "contract per unit", Value: res.Margin.ContractPerUnit, Kind: Money},
		Row{Section: "margin", Metric: "contract total", Value: res.Margin.ContractTotal, Kind: Money},
		Row{Section: "margin", Metric: "contract rate", Value: res.Margin.ContractRate, Kind: Percent},
		Row{Section: "margin", Metric: "until payback per unit", Value: res.Margin.UntilPaybackPerUnit, Kind: Money},
	)

	return rows
}

// TermRows flattens a term comparison, one section per term.
func TermRows(terms []engine.TermComparison) []Row {
	var rows []Row
	for _, tc := range terms {
		section := fmt.Sprintf("%d months", tc.TermMonths)
		rows = append(rows,
			Row{Section: section, Metric: "payback", Value: float64(tc.PaybackMonths), Kind: Months},
			Row{Section: section, Metric: "rent per unit ex VAT", Value: tc.RentPerUnitExVAT, Kind: Money},
			Row{Section: section, Metric: "rent EAC per unit", Value: tc.RentEACPerUnit, Kind: Money},
			Row{Section: section, Metric: "buy EAC per unit", Value: tc.BuyEACPerUnit, Kind: Money},
		)
		adv := Row{Section: section, Metric: "advantage per unit", Kind: Money, NotApplicable: tc.Advantage == nil}
		if tc.Advantage != nil {
			adv.Value = tc.Advantage.PerUnit
		}
		rows = append(rows, adv,
			Row{Section: section, Metric: "contract margin per unit", Value: tc.ContractMarginPerUnit, Kind: Money},
			Row{Section: section, Metric: "contract margin rate", Value: tc.ContractMarginRate, Kind: Percent},
		)
	}
	return rows
}

// Display renders the value of r for humans.
func (r Row) Display(currencyCode string) string {
	if r.NotApplicable {
		return "n/a"
	}
	switch r.Kind {
	case Money:
		return format.Currency(r.Value, currencyCode)
	case Percent:
		return format.Percent(r.Value)
	case Months:
		return fmt.Sprintf("%d months", int(r.Value))
	case Count:
		return strconv.Itoa(int(r.Value))
	default:
		return strconv.FormatFloat(r.Value, 'f', 4, 64)
	}
}

// Raw renders the value of r for machines: money rounded to the minor unit,
// everything else at full precision, and an empty string when not applicable.
func (r Row) Raw(currencyCode string) string {
	if r.NotApplicable {
		return ""
	}
	if r.Kind == Money {
		return strconv.FormatFloat(format.Round(r.Value, currencyCode), 'f', format.Scale(currencyCode), 64)
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, title, currencyCode string, rows []Row, warnings []string) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(w, "--- %s ---\n", title)
	_, _ = p.Fprintf(w, "%-16s | %-26s | %s\n", "Section", "Metric", "Value")
	_, _ = p.Fprintf(w, "%-16s | %-26s | %s\n", "_______", "______", "_____")
	for _, row := range rows {
		_, _ = p.Fprintf(w, "%-16s | %-26s | %s\n", row.Section, row.Metric, row.Display(currencyCode))
	}
	if len(warnings) > 0 {
		_, _ = p.Fprintf(w, "\nWarnings:\n")
		for _, warning := range warnings {
			_, _ = p.Fprintf(w, "  - %s\n", warning)
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, currencyCode string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "metric", "value"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Section, row.Metric, row.Raw(currencyCode)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
