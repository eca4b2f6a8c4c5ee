package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

var whitespaceRun = regexp.MustCompile(ws + `+`)

// amountPattern is a decimal-comma numeral without thousands separators.
var amountPattern = regexp.MustCompile(`^\d+,\d{2}$`)

// parseAmount converts a decimal-comma string like "1234,56" to a float64.
// Thousands separators are not accepted.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return 0, &strconv.NumError{Func: "parseAmount", Num: s, Err: strconv.ErrSyntax}
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// parseDate parses a DD/MM/YYYY date.
func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

// cleanDescription collapses whitespace runs, no-break spaces included, to
// one space and trims.
func cleanDescription(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
