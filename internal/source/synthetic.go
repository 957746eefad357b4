package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/period"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// DefaultCoefficients weights a two-leg spread as leg1 - leg2.
var DefaultCoefficients = []float64{1, -1}

// SubWindow is one synthetic query: a date range in which each leg has a fixed offset.
type SubWindow struct {
	Window  types.DateRange
	Periods []types.RelativePeriod
}

// SyntheticAdapter resolves both legs into relative periods and queries the
// synthetic engine once per overlapping pair.
type SyntheticAdapter struct {
	engine   SyntheticEngine
	resolver *period.Resolver
	opts     Options
	logger   *logger.Logger
}

// NewSyntheticAdapter creates a SyntheticAdapter.
func NewSyntheticAdapter(engine SyntheticEngine, resolver *period.Resolver, opts Options, log *logger.Logger) *SyntheticAdapter {
	return &SyntheticAdapter{engine: engine, resolver: resolver, opts: opts, logger: log.Named("synthetic")}
}

// Plan returns the sub-windows to query: the non-empty intersections of every
// (leg1 period, leg2 period) pair, ordered by start date.
func (a *SyntheticAdapter) Plan(legs []types.ContractSpec, window types.DateRange) []SubWindow {
	if len(legs) != 2 {
		return nil
	}

	first := a.resolver.Resolve(legs[0], window)
	second := a.resolver.Resolve(legs[1], window)

	var plan []SubWindow
	for _, p1 := range first {
		for _, p2 := range second {
			overlap := p1.Window.Intersect(p2.Window)
			if overlap.IsEmpty() {
				continue
			}

			plan = append(plan, SubWindow{Window: overlap, Periods: []types.RelativePeriod{p1, p2}})
		}
	}

	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].Window.Start.Before(plan[j].Window.Start)
	})

	return plan
}

// Fetch queries every planned sub-window and concatenates the results,
// sorted by timestamp and without duplicate rows. A failing sub-window
// contributes no rows; the call only errors when no sub-window succeeded.
func (a *SyntheticAdapter) Fetch(ctx context.Context, legs []types.ContractSpec, coefficients []float64, window types.DateRange) (SyntheticTable, FetchReport, error) {
	report := FetchReport{}

	if len(legs) != 2 {
		return SyntheticTable{}, report, errors.Newf(errors.ErrCodeUnsupportedContractCount,
			"synthetic source needs exactly two legs, got %d", len(legs))
	}

	if len(coefficients) == 0 {
		coefficients = DefaultCoefficients
	}

	if len(coefficients) != len(legs) {
		return SyntheticTable{}, report, errors.Newf(errors.ErrCodeInvalidCoefficients,
			"expected %d coefficients, got %d", len(legs), len(coefficients))
	}

	plan := a.Plan(legs, window)
	report.SubWindows = len(plan)

	var (
		combined SyntheticTable
		lastErr  error
	)

	for i, sub := range plan {
		if ctx.Err() != nil {
			report.Skipped = len(plan) - i
			a.logger.Warn("Deadline exceeded, skipping remaining sub-windows",
				zap.Int("skipped", report.Skipped),
				zap.Error(ctx.Err()),
			)
			lastErr = errors.Wrap(errors.ErrCodeSourceTimeout, "synthetic fetch deadline exceeded", ctx.Err())

			break
		}

		query := a.query(legs, coefficients, sub)
		what := fmt.Sprintf("synthetic %s %s", offsetsLabel(sub.Periods), sub.Window)

		table, err := callWithRetry(ctx, a.opts, a.logger, what, func(ctx context.Context) (SyntheticTable, error) {
			return a.engine.FetchSynthetic(ctx, query)
		})
		if err != nil {
			a.logger.Warn("Synthetic sub-window failed, continuing with no rows",
				zap.Stringer("window", sub.Window),
				zap.String("periods", offsetsLabel(sub.Periods)),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, SubWindowFailure{
				Window:  sub.Window,
				Offsets: offsets(sub.Periods),
				Error:   err.Error(),
			})
			lastErr = err
		} else {
			report.Succeeded++
			combined.Orders = append(combined.Orders, table.Orders...)
			combined.Trades = append(combined.Trades, table.Trades...)
		}

		if a.opts.Progress != nil {
			a.opts.Progress(i+1, len(plan))
		}
	}

	combined = dedupSynthetic(combined)
	if a.opts.AdjustTrades {
		before := len(combined.Trades)
		combined.Trades = AdjustTrades(combined.Trades, combined.Orders)
		report.TradesAdjusted = before - len(combined.Trades)
	}

	report.Orders = len(combined.Orders)
	report.Trades = len(combined.Trades)

	a.logger.Info("Synthetic fetch complete",
		zap.Int("sub_windows", report.SubWindows),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failures)),
		zap.Int("orders", report.Orders),
		zap.Int("trades", report.Trades),
		zap.Int("trades_adjusted", report.TradesAdjusted),
	)

	if report.Failed() {
		return SyntheticTable{}, report, errors.Wrapf(errors.GetCodeOr(lastErr, errors.ErrCodeSourceUnavailable), lastErr,
			"all %d synthetic sub-windows failed", report.SubWindows)
	}

	return combined, report, nil
}

func (a *SyntheticAdapter) query(legs []types.ContractSpec, coefficients []float64, sub SubWindow) SyntheticQuery {
	q := SyntheticQuery{
		Window:         sub.Window,
		TransitionDays: a.resolver.TransitionDays(),
		Session:        a.opts.Session,
	}

	for i, leg := range legs {
		q.Legs = append(q.Legs, SyntheticLeg{
			Market:      leg.Market,
			Product:     leg.Product,
			Unit:        sub.Periods[i].Unit,
			Offset:      sub.Periods[i].Offset,
			Coefficient: coefficients[i],
		})
	}

	return q
}

func offsets(periods []types.RelativePeriod) []int {
	out := make([]int, len(periods))
	for i, p := range periods {
		out[i] = p.Offset
	}

	return out
}

func offsetsLabel(periods []types.RelativePeriod) string {
	out := ""
	for i, p := range periods {
		if i > 0 {
			out += "/"
		}

		out += p.Label()
	}

	return out
}
