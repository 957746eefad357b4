package source

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// PrimaryAdapter fetches raw orders and trades from the primary engine.
type PrimaryAdapter struct {
	engine PrimaryEngine
	opts   Options
	logger *logger.Logger
}

// NewPrimaryAdapter creates a PrimaryAdapter.
func NewPrimaryAdapter(engine PrimaryEngine, opts Options, log *logger.Logger) *PrimaryAdapter {
	return &PrimaryAdapter{engine: engine, opts: opts, logger: log.Named("primary")}
}

// Fetch returns the raw table for one leg or the spread between two legs.
// A failed query yields an empty table, a report entry and a SourceUnavailable
// (or SourceTimeout) error for the caller to record against the branch.
func (a *PrimaryAdapter) Fetch(ctx context.Context, legs []types.ContractSpec, window types.DateRange) (PrimaryTable, FetchReport, error) {
	report := FetchReport{}

	if len(legs) == 0 || len(legs) > 2 {
		return PrimaryTable{}, report, errors.Newf(errors.ErrCodeUnsupportedContractCount,
			"primary source takes one or two legs, got %d", len(legs))
	}

	if window.IsEmpty() {
		return PrimaryTable{}, report, nil
	}

	query := PrimaryQuery{
		Market:  CombinedMarket(legs),
		Legs:    legs,
		Window:  window,
		Session: a.opts.Session,
	}

	report.SubWindows = 1
	what := fmt.Sprintf("primary %s %s", legCodes(legs), window)

	table, err := callWithRetry(ctx, a.opts, a.logger, what, func(ctx context.Context) (PrimaryTable, error) {
		return a.engine.FetchPrimary(ctx, query)
	})
	if a.opts.Progress != nil {
		a.opts.Progress(1, 1)
	}

	if err != nil {
		a.logger.Warn("Primary fetch failed, continuing with no rows",
			zap.String("market", query.Market),
			zap.Stringer("window", window),
			zap.Error(err),
		)
		report.Failures = append(report.Failures, SubWindowFailure{Window: window, Error: err.Error()})

		return PrimaryTable{}, report, err
	}

	report.Succeeded = 1
	report.Orders = len(table.Orders)
	report.Trades = len(table.Trades)

	a.logger.Info("Primary fetch complete",
		zap.String("market", query.Market),
		zap.Stringer("window", window),
		zap.Int("orders", report.Orders),
		zap.Int("trades", report.Trades),
	)

	return table, report, nil
}

func legCodes(legs []types.ContractSpec) string {
	out := ""
	for i, leg := range legs {
		if i > 0 {
			out += "/"
		}

		out += leg.Code()
	}

	return out
}
