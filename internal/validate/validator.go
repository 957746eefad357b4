// Package validate removes or flags financially impossible quotes.
package validate

import (
	"sync"

	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"go.uber.org/zap"
)

// Stats are the running counters of a BidAskValidator.
type Stats struct {
	TotalProcessed    int     `json:"total_processed"`
	FilteredCount     int     `json:"filtered_count"`
	FilterRatePercent float64 `json:"filter_rate_percent"`
}

// BidAskValidator drops (strict) or flags (non-strict) quotes whose ask is
// below their bid. Only quotes with both sides present are processed.
// Counters accumulate across calls, so one instance belongs to one pipeline run.
type BidAskValidator struct {
	strict bool
	logger *logger.Logger

	mu             sync.Mutex
	totalProcessed int
	filteredCount  int
}

// NewBidAskValidator creates a validator.
func NewBidAskValidator(strict bool, log *logger.Logger) *BidAskValidator {
	return &BidAskValidator{strict: strict, logger: log.Named("validator")}
}

// Strict reports whether crossed quotes are dropped rather than flagged.
func (v *BidAskValidator) Strict() bool {
	return v.strict
}

// Validate returns a new dataset with crossed quotes removed or flagged.
// Trades and one-sided quotes pass through untouched. Equal bid and ask is valid.
func (v *BidAskValidator) Validate(name string, ds types.Dataset) types.Dataset {
	out := make([]types.MarketRecord, 0, len(ds.Records))
	processed, crossed := 0, 0

	for _, r := range ds.Records {
		if !r.IsQuote() || r.BidPrice.IsNone() || r.AskPrice.IsNone() {
			out = append(out, r)

			continue
		}

		processed++
		if !r.IsCrossed() {
			out = append(out, r)

			continue
		}

		crossed++
		if !v.strict {
			r.Invalid = true
			out = append(out, r)
		}
	}

	v.mu.Lock()
	v.totalProcessed += processed
	v.filteredCount += crossed
	v.mu.Unlock()

	if crossed > 0 {
		v.logger.Info("Crossed quotes found",
			zap.String("dataset", name),
			zap.Int("processed", processed),
			zap.Int("crossed", crossed),
			zap.Bool("removed", v.strict),
		)
	}

	return types.Dataset{Records: out}
}

// Stats returns the accumulated counters.
func (v *BidAskValidator) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()

	denominator := v.totalProcessed
	if denominator < 1 {
		denominator = 1
	}

	return Stats{
		TotalProcessed:    v.totalProcessed,
		FilteredCount:     v.filteredCount,
		FilterRatePercent: float64(v.filteredCount) / float64(denominator) * 100,
	}
}
