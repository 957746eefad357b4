// Package merge unifies the primary and synthetic datasets into one series.
package merge

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/outlier"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/internal/validate"
	"go.uber.org/zap"
)

// Counts are the record counts of each source and merge stage.
type Counts struct {
	PrimaryTrades   int `json:"primary_trades"`
	PrimaryQuotes   int `json:"primary_quotes"`
	SyntheticTrades int `json:"synthetic_trades"`
	SyntheticQuotes int `json:"synthetic_quotes"`

	DuplicateTrades int `json:"duplicate_trades"`
	OutlierTrades   int `json:"outlier_trades"`
	MergedTrades    int `json:"merged_trades"`
	MergedQuotes    int `json:"merged_quotes"`
	FinalRemoved    int `json:"final_removed"`
	UnifiedTotal    int `json:"unified_total"`
}

// Result is the output of a merge.
type Result struct {
	Dataset  types.Dataset  `json:"dataset"`
	Counts   Counts         `json:"counts"`
	Outliers outlier.Report `json:"outliers"`
}

// Engine merges two normalized, validated and cleaned datasets:
//
//  1. trades of both sources are concatenated, sorted, deduplicated and
//     passed through the trade outlier filter
//  2. quotes are forward-filled per source onto the union of their
//     timestamps; bid is the best (max) and ask the best (min) of both
//  3. trades and quotes are concatenated and sorted by time
//  4. the validator runs once more over the result
//
// An empty source simply contributes nothing to each stage.
type Engine struct {
	validator   *validate.BidAskValidator
	tradeFilter *outlier.Filter
	logger      *logger.Logger
}

// NewEngine creates an Engine. The validator should be the run's instance so
// that its counters cover the final pass.
func NewEngine(validator *validate.BidAskValidator, tradeFilter *outlier.Filter, log *logger.Logger) *Engine {
	return &Engine{validator: validator, tradeFilter: tradeFilter, logger: log.Named("merge")}
}

// Merge runs all four stages and returns a new dataset.
func (e *Engine) Merge(primary, synthetic types.Dataset) Result {
	var counts Counts

	primaryTrades, primaryQuotes := primary.Trades(), primary.Quotes()
	syntheticTrades, syntheticQuotes := synthetic.Trades(), synthetic.Quotes()
	counts.PrimaryTrades, counts.PrimaryQuotes = len(primaryTrades), len(primaryQuotes)
	counts.SyntheticTrades, counts.SyntheticQuotes = len(syntheticTrades), len(syntheticQuotes)

	trades, duplicates := UnionTrades(primaryTrades, syntheticTrades)
	counts.DuplicateTrades = duplicates

	cleaned, report := e.tradeFilter.Apply("merged trades", types.Dataset{Records: trades})
	counts.OutlierTrades = report.Removed
	counts.MergedTrades = cleaned.Len()

	quotes := BestQuotes(primaryQuotes, syntheticQuotes)
	counts.MergedQuotes = len(quotes)

	unified := make([]types.MarketRecord, 0, len(cleaned.Records)+len(quotes))
	unified = append(unified, cleaned.Records...)
	unified = append(unified, quotes...)

	final := e.validator.Validate("merged", types.NewDataset(unified))
	counts.FinalRemoved = len(unified) - final.Len()
	counts.UnifiedTotal = final.Len()

	e.logger.Info("Merge complete",
		zap.Int("primary_trades", counts.PrimaryTrades),
		zap.Int("primary_quotes", counts.PrimaryQuotes),
		zap.Int("synthetic_trades", counts.SyntheticTrades),
		zap.Int("synthetic_quotes", counts.SyntheticQuotes),
		zap.Int("merged_trades", counts.MergedTrades),
		zap.Int("merged_quotes", counts.MergedQuotes),
		zap.Int("unified_total", counts.UnifiedTotal),
	)

	return Result{Dataset: final, Counts: counts, Outliers: report}
}

// UnionTrades concatenates trade series, sorts them by time and drops exact
// duplicates. It returns the union and the number of duplicates removed.
func UnionTrades(series ...[]types.MarketRecord) ([]types.MarketRecord, int) {
	var all []types.MarketRecord
	for _, s := range series {
		all = append(all, s...)
	}

	types.SortByTimestamp(all)

	seen := make(map[types.TradeKey]struct{}, len(all))
	out := make([]types.MarketRecord, 0, len(all))
	for _, r := range all {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out, len(all) - len(out)
}

// BestQuotes merges quote series on the union of their timestamps. Each
// series' bid and ask are forward-filled independently; the merged bid is
// the max and the merged ask the min of the filled values. Timestamps where
// neither side is known are dropped.
func BestQuotes(series ...[]types.MarketRecord) []types.MarketRecord {
	filled := make([]*forwardFill, len(series))
	var stamps []time.Time
	for i, s := range series {
		filled[i] = newForwardFill(s)
		stamps = append(stamps, filled[i].stamps...)
	}

	stamps = uniqueSorted(stamps)

	out := make([]types.MarketRecord, 0, len(stamps))
	for _, ts := range stamps {
		bid, ask := optional.None[float64](), optional.None[float64]()

		for _, f := range filled {
			b, a := f.at(ts)
			if b.IsSome() && (bid.IsNone() || b.Unwrap() > bid.Unwrap()) {
				bid = b
			}

			if a.IsSome() && (ask.IsNone() || a.Unwrap() < ask.Unwrap()) {
				ask = a
			}
		}

		if bid.IsNone() && ask.IsNone() {
			continue
		}

		out = append(out, types.NewQuote(ts, types.SourceMerged, bid, ask))
	}

	return out
}

// forwardFill answers "last known bid and ask at or before t" for one series.
type forwardFill struct {
	stamps []time.Time
	bids   []optional.Option[float64]
	asks   []optional.Option[float64]
	cursor int
}

// newForwardFill collapses each timestamp to its last row and carries every
// side forward independently.
func newForwardFill(quotes []types.MarketRecord) *forwardFill {
	sorted := make([]types.MarketRecord, len(quotes))
	copy(sorted, quotes)
	types.SortByTimestamp(sorted)

	f := &forwardFill{}
	bid, ask := optional.None[float64](), optional.None[float64]()

	for _, q := range sorted {
		if q.BidPrice.IsSome() {
			bid = q.BidPrice
		}

		if q.AskPrice.IsSome() {
			ask = q.AskPrice
		}

		if n := len(f.stamps); n > 0 && f.stamps[n-1].Equal(q.Timestamp) {
			f.bids[n-1], f.asks[n-1] = bid, ask

			continue
		}

		f.stamps = append(f.stamps, q.Timestamp)
		f.bids = append(f.bids, bid)
		f.asks = append(f.asks, ask)
	}

	return f
}

// at must be called with non-decreasing timestamps.
func (f *forwardFill) at(ts time.Time) (optional.Option[float64], optional.Option[float64]) {
	for f.cursor < len(f.stamps) && !f.stamps[f.cursor].After(ts) {
		f.cursor++
	}

	if f.cursor == 0 {
		return optional.None[float64](), optional.None[float64]()
	}

	return f.bids[f.cursor-1], f.asks[f.cursor-1]
}

func uniqueSorted(stamps []time.Time) []time.Time {
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	out := stamps[:0]
	for i, ts := range stamps {
		if i > 0 && ts.Equal(out[len(out)-1]) {
			continue
		}

		out = append(out, ts)
	}

	return out
}
