package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportTable is the tabular payload shared by the CSV and XLSX exporters.
// Monetary cells must already be formatted with FormatMoney (2dp).
type ExportTable struct {
	Report    string
	DateRange string // ISO date or "from_to" range, used in the filename
	Headers   []string
	Rows      [][]string
}

// Filename follows the `<report>_<ISO-date-or-range>.<ext>` convention.
func (t ExportTable) Filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", t.Report, t.DateRange, ext)
}

// WriteCSV writes the table as CSV: header row first, EVERY cell
// double-quoted. encoding/csv only quotes cells that need it, and downstream
// spreadsheet imports rely on unconditional quoting, hence the manual writer.
func WriteCSV(w io.Writer, t ExportTable) error {
	if err := writeCSVRow(w, t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, cells []string) error {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// BuildXLSX renders the same table as a single-sheet workbook.
func BuildXLSX(t ExportTable) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	if err := writeXLSXRow(f, sheet, 1, t.Headers); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := writeXLSXRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeXLSXRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	for col, cell := range cells {
		name, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, name, cell); err != nil {
			return err
		}
	}
	return nil
}
