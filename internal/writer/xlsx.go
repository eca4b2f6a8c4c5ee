package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

const (
	movementsSheet = "Movimenti"
	monthlySheet   = "Analisi per mese"
)

// XLSXWriter writes movements, and optionally the monthly analysis, to an
// Excel workbook.
type XLSXWriter struct {
	IncludeExtraColumns bool
}

// Write encodes res as a workbook. The monthly sheet is only added when
// there is more than one movement.
func (w *XLSXWriter) Write(out io.Writer, res *models.Result) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	cols := Columns(w.IncludeExtraColumns)
	if err := setRow(f, movementsSheet, 1, toCells(cols)); err != nil {
		return err
	}
	for i, m := range res.Movements {
		cells := make([]interface{}, len(cols))
		for j, c := range cols {
			switch c {
			case ColAmount:
				cells[j] = m.Amount
			default:
				cells[j] = cellValue(m, c)
			}
		}
		if err := setRow(f, movementsSheet, i+2, cells); err != nil {
			return err
		}
	}

	if len(res.Movements) > 1 {
		if _, err := f.NewSheet(monthlySheet); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", monthlySheet, err)
		}
		header := []interface{}{"Mese", "Numero movimenti", "Totale €", "Media €"}
		if err := setRow(f, monthlySheet, 1, header); err != nil {
			return err
		}
		for i, s := range res.Monthly {
			if err := setRow(f, monthlySheet, i+2, []interface{}{s.Period(), s.Count, s.Total, s.Mean}); err != nil {
				return err
			}
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %q: %w", n, sheet, err)
	}
	return nil
}

func toCells(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
