// Package writer encodes extracted movements for download.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

// Column names as exposed to users.
const (
	ColDate          = "Data"
	ColOperationDate = "Data_Operazione"
	ColDescription   = "Descrizione"
	ColAmount        = "Importo"
	ColReference     = "Codice_Riferimento"
)

// Columns returns the exported columns in order.
func Columns(includeExtra bool) []string {
	if includeExtra {
		return []string{ColDate, ColOperationDate, ColDescription, ColAmount, ColReference}
	}
	return []string{ColDate, ColDescription, ColAmount}
}

// Filename returns the default download name for the given extension,
// e.g. movimenti_estratti_20240131_154500.csv.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("movimenti_estratti_%s.%s", now.Format("20060102_150405"), ext)
}

// CSVWriter writes movements to CSV format.
type CSVWriter struct {
	IncludeExtraColumns bool
}

// WriteToFile writes movements to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, movements []models.Movement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, movements)
}

// Write writes movements in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, movements []models.Movement) error {
	writer := csv.NewWriter(out)

	cols := Columns(w.IncludeExtraColumns)
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, m := range movements {
		if err := writer.Write(row(m, cols)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func row(m models.Movement, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = cellValue(m, c)
	}
	return out
}

func cellValue(m models.Movement, col string) string {
	switch col {
	case ColDate:
		return m.Date
	case ColOperationDate:
		return m.OperationDate
	case ColDescription:
		return m.Description
	case ColAmount:
		return formatAmount(m.Amount)
	case ColReference:
		return m.ReferenceCode
	}
	return ""
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
