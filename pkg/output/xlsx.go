package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the report.
const SheetName = "Comparison"

// XLSXFormat writes rows as a single-sheet workbook with a frozen, bold
// header. Money cells carry a two-decimal number format; n/a cells stay
// empty.
func XLSXFormat(w io.Writer, currencyCode string, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFormat := "#,##0.00"
	if currencyCode != "" {
		moneyFormat += ` "` + currencyCode + `"`
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return fmt.Errorf("failed to create percent style: %w", err)
	}

	for i, header := range []string{"Section", "Metric", "Value"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		n := i + 2
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", n), row.Section); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("B%d", n), row.Metric); err != nil {
			return err
		}
		if row.NotApplicable {
			continue
		}
		valueCell := fmt.Sprintf("C%d", n)
		if err := f.SetCellValue(SheetName, valueCell, row.Value); err != nil {
			return err
		}
		switch row.Kind {
		case Money:
			err = f.SetCellStyle(SheetName, valueCell, valueCell, moneyStyle)
		case Percent:
			err = f.SetCellStyle(SheetName, valueCell, valueCell, percentStyle)
		}
		if err != nil {
			return err
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 18)
	_ = f.SetColWidth(SheetName, "B", "B", 30)
	_ = f.SetColWidth(SheetName, "C", "C", 18)
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
