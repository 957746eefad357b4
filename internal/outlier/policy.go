// Package outlier detects and removes anomalous trade prices.
package outlier

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// Policy flags outliers in a series of trades sorted by timestamp.
// The returned slice is aligned with the input.
type Policy interface {
	Name() string
	Detect(trades []types.MarketRecord) []bool
}

const (
	DefaultZThreshold       = 5.0
	DefaultWindow           = 50
	DefaultMinPeriods       = 5
	DefaultGapBaseline      = 60 * time.Minute
	DefaultMaxReturnPercent = 50.0
	// DefaultMergedMaxReturnPercent caps price moves of the unified trades.
	DefaultMergedMaxReturnPercent = 8.0
	minGapFactor                  = 1.0
	maxGapFactor                  = 3.0
	minZScoreSamples              = 3
)

// ZScorePolicy flags prices whose z-score against the whole batch exceeds Threshold.
// It needs at least three prices and flags nothing when all prices are equal.
// A positive MaxReturnPercent also flags every positive price that moved more
// than that percentage away from the last unflagged positive price.
type ZScorePolicy struct {
	Threshold        float64
	MaxReturnPercent float64
}

// NewZScorePolicy returns a ZScorePolicy with the default threshold and no cap.
func NewZScorePolicy() ZScorePolicy {
	return ZScorePolicy{Threshold: DefaultZThreshold}
}

// NewMergedZScorePolicy returns the policy applied to unified trades: the
// default threshold plus the merged-stage return cap.
func NewMergedZScorePolicy() ZScorePolicy {
	return ZScorePolicy{Threshold: DefaultZThreshold, MaxReturnPercent: DefaultMergedMaxReturnPercent}
}

func (p ZScorePolicy) Name() string {
	return "zscore"
}

func (p ZScorePolicy) Detect(trades []types.MarketRecord) []bool {
	flags := make([]bool, len(trades))
	p.flagZScores(trades, flags)

	if p.MaxReturnPercent > 0 {
		flagLargeReturns(trades, flags, p.MaxReturnPercent)
	}

	return flags
}

func (p ZScorePolicy) flagZScores(trades []types.MarketRecord, flags []bool) {
	var prices []float64
	var idx []int
	for i, r := range trades {
		if r.Price.IsSome() && !math.IsNaN(r.Price.Unwrap()) {
			prices = append(prices, r.Price.Unwrap())
			idx = append(idx, i)
		}
	}

	if len(prices) < minZScoreSamples {
		return
	}

	mean, std := meanStd(prices)
	if std == 0 || math.IsNaN(std) {
		return
	}

	for k, price := range prices {
		if math.Abs(price-mean)/std > p.Threshold {
			flags[idx[k]] = true
		}
	}
}

// flagLargeReturns measures each move against the last accepted price, so a
// single spike does not also flag the trade that returns from it.
func flagLargeReturns(trades []types.MarketRecord, flags []bool, maxPercent float64) {
	last := 0.0
	for i, r := range trades {
		if flags[i] || r.Price.IsNone() || r.Price.Unwrap() <= 0 {
			continue
		}

		price := r.Price.Unwrap()
		if last > 0 && math.Abs(price-last)/last*100 > maxPercent {
			flags[i] = true

			continue
		}

		last = price
	}
}

// RollingPolicy flags trades by their percentage return against a trailing
// window of returns. The z threshold is widened by the time since the
// previous trade relative to GapBaseline, clamped to [1, 3] times Threshold.
// Any absolute return above MaxReturnPercent is flagged regardless.
// Only trades with a positive price take part.
type RollingPolicy struct {
	Threshold        float64
	Window           int
	MinPeriods       int
	GapBaseline      time.Duration
	MaxReturnPercent float64
}

// NewRollingPolicy returns a RollingPolicy with default parameters.
func NewRollingPolicy() RollingPolicy {
	return RollingPolicy{
		Threshold:        DefaultZThreshold,
		Window:           DefaultWindow,
		MinPeriods:       DefaultMinPeriods,
		GapBaseline:      DefaultGapBaseline,
		MaxReturnPercent: DefaultMaxReturnPercent,
	}
}

func (p RollingPolicy) Name() string {
	return "rolling"
}

func (p RollingPolicy) Detect(trades []types.MarketRecord) []bool {
	flags := make([]bool, len(trades))

	var idx []int
	for i, r := range trades {
		if r.Price.IsSome() && r.Price.Unwrap() > 0 {
			idx = append(idx, i)
		}
	}

	n := len(idx)
	if n < 2 {
		return flags
	}

	window := p.Window
	if window > n || window <= 0 {
		window = n
	}

	baseline := p.GapBaseline
	if baseline <= 0 {
		baseline = DefaultGapBaseline
	}

	// returns[0] does not exist; position k holds the return into trade k
	returns := make([]float64, n)
	for k := 1; k < n; k++ {
		prev := trades[idx[k-1]].Price.Unwrap()
		returns[k] = (trades[idx[k]].Price.Unwrap() - prev) / prev * 100
	}

	for k := 1; k < n; k++ {
		ret := returns[k]

		if p.MaxReturnPercent > 0 && math.Abs(ret) > p.MaxReturnPercent {
			flags[idx[k]] = true

			continue
		}

		from := k - window + 1
		if from < 1 {
			from = 1
		}

		if k-from+1 < p.MinPeriods || k-from+1 < 2 {
			continue
		}

		mean, std := meanStd(returns[from : k+1])
		if std == 0 || math.IsNaN(std) {
			continue
		}

		gap := trades[idx[k]].Timestamp.Sub(trades[idx[k-1]].Timestamp)
		factor := math.Min(math.Max(float64(gap)/float64(baseline), minGapFactor), maxGapFactor)

		if math.Abs(ret-mean)/std > p.Threshold*factor {
			flags[idx[k]] = true
		}
	}

	return flags
}

// meanStd returns the mean and the sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n < 2 {
		return 0, math.NaN()
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	mean := sum / n

	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(sq / (n - 1))
}
