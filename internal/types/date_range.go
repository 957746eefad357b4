package types

import "time"

const day = 24 * time.Hour

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open range of calendar days [Start, End), both at midnight UTC.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewDateRange builds the half-open range covering the inclusive calendar days first..last.
func NewDateRange(first, last time.Time) DateRange {
	return DateRange{Start: Day(first), End: Day(last).Add(day)}
}

// IsEmpty reports whether the range contains no day.
func (r DateRange) IsEmpty() bool {
	return !r.End.After(r.Start)
}

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	if r.IsEmpty() {
		return 0
	}

	return int(r.End.Sub(r.Start) / day)
}

// LastDay returns the last calendar day contained in the range.
func (r DateRange) LastDay() time.Time {
	return r.End.Add(-day)
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Intersect returns the overlap of r and other; the result may be empty.
func (r DateRange) Intersect(other DateRange) DateRange {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}

	end := r.End
	if other.End.Before(end) {
		end = other.End
	}

	if end.Before(start) {
		end = start
	}

	return DateRange{Start: start, End: end}
}

func (r DateRange) String() string {
	if r.IsEmpty() {
		return "[]"
	}

	return "[" + r.Start.Format(time.DateOnly) + ", " + r.LastDay().Format(time.DateOnly) + "]"
}
