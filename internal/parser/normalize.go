package parser

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

var (
	// ErrInvalidDate is returned when the registration date is not a valid DD/MM/YYYY date.
	ErrInvalidDate = errors.New("invalid registration date")
	// ErrInvalidAmount is returned when the amount is not a decimal-comma numeral.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Normalize turns a raw tuple into a Movement.
//
// The registration date is parsed and formatted again; this is the only
// place malformed dates such as 31/02/2024 are rejected.
func Normalize(m Match) (models.Movement, error) {
	date, err := parseDate(m.RegistrationDate)
	if err != nil {
		return models.Movement{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, m.RegistrationDate, err)
	}

	amount, err := parseAmount(m.Amount)
	if err != nil {
		return models.Movement{}, fmt.Errorf("%w %q: %v", ErrInvalidAmount, m.Amount, err)
	}

	mv := models.Movement{
		Date:          date.Format(models.DateLayout),
		OperationDate: m.OperationDate,
		Description:   cleanDescription(m.Description),
		Amount:        amount,
	}
	if m.Kind == KindFull {
		mv.ReferenceCode = m.ReferenceCode
	}
	return mv, nil
}
