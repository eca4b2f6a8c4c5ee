package models

import (
	"strings"
	"time"
)

// DateLayout is the day/month/year layout used by statement dates.
const DateLayout = "02/01/2006"

// Movement represents a single card or account statement transaction.
type Movement struct {
	Date          string  `json:"Data"`               // registration date, DD/MM/YYYY
	OperationDate string  `json:"Data_Operazione"`    // informational only
	Description   string  `json:"Descrizione"`
	Amount        float64 `json:"Importo"`
	ReferenceCode string  `json:"Codice_Riferimento"` // empty on the reduced layout
}

// Time parses the registration date.
func (m Movement) Time() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(m.Date))
}

// Document is the ordered page text of one submitted statement, as handed
// over by the text-extraction collaborator.
type Document struct {
	Name  string
	Pages []string
	// Err is set when the text could not be obtained at all. Pages is then empty.
	Err error
}

// DocumentReport describes what came out of one document.
type DocumentReport struct {
	Name      string `json:"name"`
	Pages     int    `json:"pages"`
	Matched   int    `json:"matched"`
	Dropped   int    `json:"dropped"`
	Movements int    `json:"movements"`
	Fallback  int    `json:"fallbackPages"`
	Warning   string `json:"warning,omitempty"`
}

// NoMovements reports the document-level "no movements found" condition.
func (r DocumentReport) NoMovements() bool {
	return r.Movements == 0
}

// MonthlySummary holds the aggregate for one calendar month.
type MonthlySummary struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Count int        `json:"count"`
	Total float64    `json:"total"`
	Mean  float64    `json:"mean"`
}

// Period returns the month key as YYYY-MM.
func (s MonthlySummary) Period() string {
	return time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Stats holds totals over the whole result set.
type Stats struct {
	Count      int     `json:"count"`
	Total      float64 `json:"total"`
	Mean       float64 `json:"mean"`
	PeriodDays int     `json:"periodDays"`
}

// Options are the user-selectable processing switches.
type Options struct {
	RemoveDuplicates    bool `json:"removeDuplicates" yaml:"remove_duplicates" mapstructure:"remove_duplicates"`
	SortByDate          bool `json:"sortByDate" yaml:"sort_by_date" mapstructure:"sort_by_date"`
	IncludeExtraColumns bool `json:"includeExtraColumns" yaml:"include_extra_columns" mapstructure:"include_extra_columns"`
}

// DefaultOptions matches the defaults offered to users.
func DefaultOptions() Options {
	return Options{RemoveDuplicates: true, SortByDate: true}
}

// Result is everything the pipeline hands to presentation and export.
type Result struct {
	Movements []Movement       `json:"movements"`
	Documents []DocumentReport `json:"documents"`
	Monthly   []MonthlySummary `json:"monthly"`
	Stats     Stats            `json:"stats"`
	// NoData is the global "no movements in any document" condition.
	NoData bool `json:"noData"`
}
