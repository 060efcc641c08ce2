package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/engine"
	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/xuri/excelize/v2"
)

func referenceResults(t *testing.T) engine.Results {
	t.Helper()
	return engine.Evaluate(scenario.Default())
}

func TestRowsAdvantageNotApplicable(t *testing.T) {
	s := scenario.Default()
	s.RealCost = s.PurchasePrice + 1
	rows := Rows(engine.Evaluate(s))

	found := 0
	for _, row := range rows {
		if row.Section == "advantage" {
			found++
			if !row.NotApplicable {
				t.Errorf("advantage row %q should be n/a", row.Metric)
			}
			if got := row.Display("EUR"); got != "n/a" {
				t.Errorf("Display() = %q, want n/a", got)
			}
			if got := row.Raw("EUR"); got != "" {
				t.Errorf("Raw() = %q, want empty", got)
			}
		}
	}
	if found != 2 {
		t.Errorf("expected 2 advantage rows, got %d", found)
	}
}

func TestRowDisplay(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{name: "Money", row: Row{Value: 1234.5, Kind: Money}, want: "1,234.50 EUR"},
		{name: "Percent", row: Row{Value: 0.16, Kind: Percent}, want: "16.00%"},
		{name: "Months", row: Row{Value: 36, Kind: Months}, want: "36 months"},
		{name: "Count", row: Row{Value: 10, Kind: Count}, want: "10"},
		{name: "Factor", row: Row{Value: 29.123456, Kind: Factor}, want: "29.1235"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Display("EUR"); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := (Row{Value: 45.4321, Kind: Money}).Raw("EUR"); got != "45.43" {
		t.Errorf("Raw() = %q, want 45.43", got)
	}
}

func TestPrettyFormat(t *testing.T) {
	res := referenceResults(t)
	var buf bytes.Buffer

	PrettyFormat(&buf, "Results for PDT", "EUR", Rows(res), []string{"Test warning"})
	output := buf.String()

	if !strings.Contains(output, "--- Results for PDT ---") {
		t.Errorf("PrettyFormat missing header")
	}
	if !strings.Contains(output, "Section          | Metric                     | Value") {
		t.Errorf("PrettyFormat missing table header")
	}
	if !strings.Contains(output, "price per unit ex VAT") {
		t.Errorf("PrettyFormat missing rent price row")
	}
	if !strings.Contains(output, " EUR") {
		t.Errorf("PrettyFormat missing currency label")
	}
	if !strings.Contains(output, "  - Test warning") {
		t.Errorf("PrettyFormat missing warning")
	}
}

func TestCsvFormat(t *testing.T) {
	res := referenceResults(t)
	rows := Rows(res)
	var buf bytes.Buffer

	if err := CsvFormat(&buf, "EUR", rows); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != len(rows)+1 {
		t.Fatalf("expected %d records, got %d", len(rows)+1, len(records))
	}
	if strings.Join(records[0], ",") != "section,metric,value" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "inputs" || records[1][1] != "quantity" || records[1][2] != "10" {
		t.Errorf("unexpected first row %v", records[1])
	}
}

func TestJSONFormat(t *testing.T) {
	res := referenceResults(t)
	var buf bytes.Buffer

	if err := JSONFormat(&buf, res); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"scenario", "rent", "purchase", "totals", "margin"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing %q", key)
		}
	}
}

func TestTermRows(t *testing.T) {
	rows := TermRows(engine.CompareTerms(scenario.Default()))
	if len(rows) != 3*7 {
		t.Fatalf("expected 21 rows, got %d", len(rows))
	}
	if rows[0].Section != "24 months" || rows[len(rows)-1].Section != "48 months" {
		t.Errorf("unexpected sections %q .. %q", rows[0].Section, rows[len(rows)-1].Section)
	}
}

func TestXLSXFormat(t *testing.T) {
	rows := Rows(referenceResults(t))
	var buf bytes.Buffer

	if err := XLSXFormat(&buf, "EUR", rows); err != nil {
		t.Fatalf("XLSXFormat() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue(SheetName, "C1")
	if err != nil || header != "Value" {
		t.Errorf("C1 = %q (%v), want Value", header, err)
	}
	metric, err := f.GetCellValue(SheetName, "B2")
	if err != nil || metric != "quantity" {
		t.Errorf("B2 = %q (%v), want quantity", metric, err)
	}
	sheetRows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(sheetRows) != len(rows)+1 {
		t.Errorf("expected %d sheet rows, got %d", len(rows)+1, len(sheetRows))
	}
}

func TestScenarioYAMLRoundTrip(t *testing.T) {
	s := scenario.Default()
	s.Currency = "USD"
	s.Quantity = 7
	s.AnnualRate = 0.1 + 0.2
	s.PaybackOverride = true
	s.PaybackMonths = 22

	var buf bytes.Buffer
	if err := ScenarioYAML(&buf, s); err != nil {
		t.Fatalf("ScenarioYAML() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "scenario:\n") {
		t.Errorf("unexpected YAML document:\n%s", buf.String())
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		t.Fatalf("exported YAML does not load: %v", err)
	}
	if conf.Scenario != s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", conf.Scenario, s)
	}
}
