package period

import (
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()

	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDays counts the business days inside r.
func BusinessDays(r types.DateRange) int {
	n := 0
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}

	return n
}

// LastBusinessDay walks back from the last day of r over weekends.
// It returns the zero time when r holds no business day.
func LastBusinessDay(r types.DateRange) time.Time {
	for d := r.LastDay(); !d.Before(r.Start); d = d.AddDate(0, 0, -1) {
		if IsBusinessDay(d) {
			return d
		}
	}

	return time.Time{}
}

// SubtractBusinessDays steps back n business days from t, skipping weekends.
func SubtractBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, -1)
		if IsBusinessDay(t) {
			n--
		}
	}

	return t
}

// LookbackWindow resolves a window of lookback business days ending the day
// before delivery, or yesterday when delivery is still in the future.
func LookbackWindow(delivery time.Time, lookback int, today time.Time) types.DateRange {
	today = types.Day(today)
	delivery = types.Day(delivery)

	end := delivery.AddDate(0, 0, -1)
	if delivery.After(today) {
		end = today.AddDate(0, 0, -1)
	}

	return types.NewDateRange(SubtractBusinessDays(end, lookback), end)
}
