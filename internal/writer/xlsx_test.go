package writer

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

func TestXLSXWriter_Write(t *testing.T) {
	res := &models.Result{
		Movements: testMovements,
		Monthly: []models.MonthlySummary{
			{Year: 2024, Month: 1, Count: 2, Total: 1246.5, Mean: 623.25},
		},
	}

	var buf bytes.Buffer
	w := &XLSXWriter{IncludeExtraColumns: true}
	if err := w.Write(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(movementsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("movement rows: got %d, want 3", len(rows))
	}
	if rows[0][4] != "Codice_Riferimento" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][2] != "AMAZON EU SARL" {
		t.Errorf("row 1: got %v", rows[1])
	}

	monthly, err := f.GetRows(monthlySheet)
	if err != nil {
		t.Fatalf("GetRows monthly: %v", err)
	}
	if len(monthly) != 2 || monthly[1][0] != "2024-01" || monthly[1][1] != "2" {
		t.Errorf("monthly rows: got %v", monthly)
	}
}

func TestXLSXWriter_SingleMovementHasNoMonthlySheet(t *testing.T) {
	res := &models.Result{Movements: testMovements[:1]}

	var buf bytes.Buffer
	if err := (&XLSXWriter{}).Write(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(monthlySheet); idx != -1 {
		t.Errorf("unexpected monthly sheet at index %d", idx)
	}
}
