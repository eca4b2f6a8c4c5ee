package parser

import (
	"errors"
	"testing"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

func TestNormalize(t *testing.T) {
	m := Match{
		Kind:             KindFull,
		ReferenceCode:    "12345678901234567890123",
		DateCode:         "20240103",
		OperationDate:    "03/01/2024",
		RegistrationDate: "05/01/2024",
		Description:      " AMAZON   EU  SARL ",
		Amount:           "12,50",
	}

	got, err := Normalize(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.Movement{
		Date:          "05/01/2024",
		OperationDate: "03/01/2024",
		Description:   "AMAZON EU SARL",
		Amount:        12.50,
		ReferenceCode: "12345678901234567890123",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestNormalize_ReducedHasNoReference(t *testing.T) {
	m := Match{
		Kind:             KindReduced,
		ReferenceCode:    "ignored",
		OperationDate:    "03/01/2024",
		RegistrationDate: "05/01/2024",
		Description:      "BAR",
		Amount:           "1,20",
	}
	got, err := Normalize(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReferenceCode != "" {
		t.Errorf("ReferenceCode: got %q, want empty", got.ReferenceCode)
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		amount  string
		wantErr error
	}{
		{"impossible day", "31/02/2024", "10,00", ErrInvalidDate},
		{"month out of range", "05/13/2024", "10,00", ErrInvalidDate},
		{"thousands separator", "05/01/2024", "1.234,56", ErrInvalidAmount},
		{"point decimal", "05/01/2024", "10.00", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(Match{
				Kind:             KindReduced,
				OperationDate:    "01/01/2024",
				RegistrationDate: tt.date,
				Description:      "SHOP",
				Amount:           tt.amount,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize_DateRoundTrip(t *testing.T) {
	dates := []string{"01/01/2024", "29/02/2024", "31/12/1999", "15/06/2030"}

	for _, d := range dates {
		t.Run(d, func(t *testing.T) {
			mv, err := Normalize(Match{Kind: KindReduced, RegistrationDate: d, Description: "X", Amount: "1,00"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want, _ := parseDate(d)
			got, err := mv.Time()
			if err != nil {
				t.Fatalf("re-parse failed: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}
