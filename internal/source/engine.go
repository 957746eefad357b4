// Package source adapts the primary exchange-data engine and the synthetic
// spread engine into raw per-window tables for the pipeline.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// Session restricts queries to a time-of-day band. The zero value means the whole day.
type Session struct {
	Start time.Duration `yaml:"start" json:"start"`
	End   time.Duration `yaml:"end" json:"end"`
}

// IsZero reports whether the session is unrestricted.
func (s Session) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Contains reports whether the time of day of t is inside [Start, End].
func (s Session) Contains(t time.Time) bool {
	if s.IsZero() {
		return true
	}

	t = t.UTC()
	offset := t.Sub(types.Day(t))

	return offset >= s.Start && offset <= s.End
}

// PrimaryQuery asks the primary engine for one or two legs over a window.
// With two legs the engine returns the spread between them.
type PrimaryQuery struct {
	Market  string
	Legs    []types.ContractSpec
	Window  types.DateRange
	Session Session
}

// PrimaryEngine is the exchange-data retrieval engine.
type PrimaryEngine interface {
	FetchPrimary(ctx context.Context, query PrimaryQuery) (PrimaryTable, error)
}

// SyntheticLeg is one leg of a synthetic query, addressed by relative period.
type SyntheticLeg struct {
	Market      string
	Product     types.Product
	Unit        types.Tenor
	Offset      int
	Coefficient float64
}

// SyntheticQuery asks the synthetic engine for a spread over one sub-window
// in which both legs carry a fixed relative offset.
type SyntheticQuery struct {
	Legs           []SyntheticLeg
	Window         types.DateRange
	TransitionDays int
	Session        Session
}

// SyntheticEngine is the synthetic spread engine. It owns the price combination math.
type SyntheticEngine interface {
	FetchSynthetic(ctx context.Context, query SyntheticQuery) (SyntheticTable, error)
}

// CombinedMarket returns the market code the primary engine uses for legs.
// Cross-market spreads join the two markets with an underscore.
func CombinedMarket(legs []types.ContractSpec) string {
	markets := make([]string, 0, len(legs))
	for _, leg := range legs {
		if len(markets) > 0 && markets[len(markets)-1] == leg.Market {
			continue
		}

		markets = append(markets, leg.Market)
	}

	return strings.Join(markets, "_")
}
