// Package pipeline combines per-document movements into the final,
// optionally deduplicated and sorted, result set and aggregates it.
package pipeline

import (
	"slices"
	"time"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

// Merge concatenates per-document sequences in the order given.
func Merge(docs ...[]models.Movement) []models.Movement {
	var out []models.Movement
	for _, d := range docs {
		out = append(out, d...)
	}
	return out
}

type dedupKey struct {
	date        string
	description string
	amount      float64
}

// Deduplicate keeps the first movement for each (date, description, amount)
// and drops later ones. Relative order of kept movements is unchanged.
// Operation date and reference code are not part of the key.
func Deduplicate(movements []models.Movement) []models.Movement {
	seen := make(map[dedupKey]struct{}, len(movements))
	out := make([]models.Movement, 0, len(movements))
	for _, m := range movements {
		k := dedupKey{m.Date, m.Description, m.Amount}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// SortByDate returns a copy ordered by registration date ascending.
// Movements sharing a date keep their input order. A date that does not
// parse sorts as the zero time.
func SortByDate(movements []models.Movement) []models.Movement {
	type keyed struct {
		t time.Time
		m models.Movement
	}
	ks := make([]keyed, len(movements))
	for i, m := range movements {
		t, _ := m.Time()
		ks[i] = keyed{t, m}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return a.t.Compare(b.t)
	})

	out := make([]models.Movement, len(ks))
	for i, k := range ks {
		out[i] = k.m
	}
	return out
}
