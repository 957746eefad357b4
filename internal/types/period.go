package types

import "fmt"

// RelativePeriod labels a contract with a rolling offset (M+1, Q+2, ...)
// that is correct for every day inside Window.
type RelativePeriod struct {
	Offset int       `json:"relative_offset"`
	Unit   Tenor     `json:"unit"`
	Window DateRange `json:"window"`
}

// Label renders the period as e.g. "M+1" or "Q+2".
func (p RelativePeriod) Label() string {
	return fmt.Sprintf("%s%+d", p.Unit.Symbol(), p.Offset)
}
