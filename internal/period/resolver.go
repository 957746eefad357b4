// Package period maps absolute contracts onto rolling relative periods
// (M+1, Q+2, ...) over a query window, applying the business-day
// transition convention at the end of every month or quarter.
package period

import (
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// DefaultTransitionDays is the default number of business days at the end
// of a period during which the next period becomes the counting reference.
const DefaultTransitionDays = 3

// Resolver computes relative periods for a contract.
//
// Inside the last TransitionDays business days of a month (quarter for
// quarterly contracts) the reference is the next month (quarter); before
// that it is the current one. The offset is the number of months (quarters)
// from the reference to the delivery month (quarter).
type Resolver struct {
	transitionDays int
}

// NewResolver creates a Resolver. A transitionDays of zero or less disables
// the transition window.
func NewResolver(transitionDays int) *Resolver {
	return &Resolver{transitionDays: transitionDays}
}

// TransitionDays returns the configured transition window length.
func (r *Resolver) TransitionDays() int {
	return r.transitionDays
}

// Segments splits window into contiguous sub-windows, one or two per calendar
// month or quarter, each labelled with its raw offset. The sub-windows are
// non-overlapping and their union is exactly window. Offsets may be zero or
// negative; use Resolve to keep only future contracts.
func (r *Resolver) Segments(spec types.ContractSpec, window types.DateRange) []types.RelativePeriod {
	if window.IsEmpty() {
		return nil
	}

	cal := calendarFor(spec.Tenor)
	delivery := cal.index(spec.DeliveryDate)

	var out []types.RelativePeriod
	for unitStart := cal.start(window.Start); unitStart.Before(window.End); unitStart = cal.next(unitStart) {
		unit := types.DateRange{Start: unitStart, End: cal.next(unitStart)}
		split := r.transitionStart(unit)
		ref := cal.index(unitStart)

		early := types.DateRange{Start: unit.Start, End: split}.Intersect(window)
		if !early.IsEmpty() {
			out = append(out, types.RelativePeriod{Offset: delivery - ref, Unit: cal.unit, Window: early})
		}

		late := types.DateRange{Start: split, End: unit.End}.Intersect(window)
		if !late.IsEmpty() {
			out = append(out, types.RelativePeriod{Offset: delivery - ref - 1, Unit: cal.unit, Window: late})
		}
	}

	return out
}

// Resolve returns the relative periods of spec over window with a positive
// offset. Adjacent sub-windows carrying the same offset are joined, so a
// window straddling one transition yields exactly two periods.
func (r *Resolver) Resolve(spec types.ContractSpec, window types.DateRange) []types.RelativePeriod {
	var out []types.RelativePeriod
	for _, p := range r.Segments(spec, window) {
		if p.Offset <= 0 {
			continue
		}

		if n := len(out); n > 0 && out[n-1].Offset == p.Offset && out[n-1].Window.End.Equal(p.Window.Start) {
			out[n-1].Window.End = p.Window.End

			continue
		}

		out = append(out, p)
	}

	return out
}

// transitionStart returns the first day of the unit's transition window,
// clamping the window length to the number of business days in the unit.
// When the window covers every business day the whole unit is transition.
func (r *Resolver) transitionStart(unit types.DateRange) time.Time {
	n := r.transitionDays
	if n <= 0 {
		return unit.End
	}

	total := BusinessDays(unit)
	if total == 0 {
		return unit.End
	}

	if n >= total {
		return unit.Start
	}

	return SubtractBusinessDays(LastBusinessDay(unit), n-1)
}

// calendar describes the counting unit of a tenor.
type calendar struct {
	unit   types.Tenor
	months int
}

func calendarFor(tenor types.Tenor) calendar {
	if tenor == types.TenorQuarter {
		return calendar{unit: types.TenorQuarter, months: 3}
	}

	return calendar{unit: types.TenorMonth, months: 1}
}

// start returns the first day of the unit containing t.
func (c calendar) start(t time.Time) time.Time {
	t = types.Day(t)
	m := (int(t.Month())-1)/c.months*c.months + 1

	return time.Date(t.Year(), time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func (c calendar) next(unitStart time.Time) time.Time {
	return unitStart.AddDate(0, c.months, 0)
}

// index numbers units consecutively so that differences are unit counts.
func (c calendar) index(t time.Time) int {
	return (t.Year()*12 + int(t.Month()) - 1) / c.months
}
