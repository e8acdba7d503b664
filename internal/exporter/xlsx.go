package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"groupagg/internal/table"
)

const defaultSheet = "Sheet1"

// WriteXLSX writes tbl as a single-sheet workbook. opts.Caption names the
// sheet. Numbers are stored as numeric cells and NaN cells are left empty.
func WriteXLSX(w io.Writer, tbl *table.Table, opts WriteOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if opts.Caption != "" {
		if err := f.SetSheetName(defaultSheet, opts.Caption); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
		sheet = opts.Caption
	}

	header := make([]interface{}, len(tbl.Columns()))
	for j, name := range tbl.ColumnNames() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	if len(header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("failed to style headers: %w", err)
		}
	}

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if x, ok := v.Float(); ok {
				if math.IsNaN(x) {
					cells[j] = nil
				} else if opts.Precision >= 0 {
					cells[j] = math.Round(x*math.Pow10(opts.Precision)) / math.Pow10(opts.Precision)
				} else {
					cells[j] = x
				}
				continue
			}
			cells[j] = v.Label()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
