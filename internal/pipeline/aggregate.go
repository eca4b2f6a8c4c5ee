package pipeline

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

type monthKey struct {
	year  int
	month time.Month
}

// Monthly groups movements by calendar month of their registration date
// and returns count, total and mean per month, oldest month first.
// Totals and means are rounded to two decimals.
func Monthly(movements []models.Movement) []models.MonthlySummary {
	type acc struct {
		count int
		sum   decimal.Decimal
	}
	groups := make(map[monthKey]*acc)
	var keys []monthKey

	for _, m := range movements {
		t, err := m.Time()
		if err != nil {
			continue
		}
		k := monthKey{t.Year(), t.Month()}
		a, ok := groups[k]
		if !ok {
			a = &acc{sum: decimal.Zero}
			groups[k] = a
			keys = append(keys, k)
		}
		a.count++
		a.sum = a.sum.Add(decimal.NewFromFloat(m.Amount))
	}

	slices.SortFunc(keys, func(a, b monthKey) int {
		if a.year != b.year {
			return a.year - b.year
		}
		return int(a.month) - int(b.month)
	})

	out := make([]models.MonthlySummary, 0, len(keys))
	for _, k := range keys {
		a := groups[k]
		out = append(out, models.MonthlySummary{
			Year:  k.year,
			Month: k.month,
			Count: a.count,
			Total: a.sum.Round(2).InexactFloat64(),
			Mean:  mean(a.sum, a.count),
		})
	}
	return out
}

// Summarize computes totals over the whole set. PeriodDays counts both the
// first and the last day.
func Summarize(movements []models.Movement) models.Stats {
	st := models.Stats{Count: len(movements)}
	if len(movements) == 0 {
		return st
	}

	sum := decimal.Zero
	var first, last time.Time
	var seen bool
	for _, m := range movements {
		sum = sum.Add(decimal.NewFromFloat(m.Amount))
		t, err := m.Time()
		if err != nil {
			continue
		}
		if !seen || t.Before(first) {
			first = t
		}
		if !seen || t.After(last) {
			last = t
		}
		seen = true
	}

	st.Total = sum.Round(2).InexactFloat64()
	st.Mean = mean(sum, len(movements))
	if seen {
		st.PeriodDays = int(last.Sub(first).Hours()/24) + 1
	}
	return st
}

func mean(sum decimal.Decimal, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}
