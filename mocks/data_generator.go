package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
)

// DataGenerator generates raw engine tables for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how quotes and trades are generated.
type GeneratorConfig struct {
	// StartTime is the timestamp of the first quote
	StartTime time.Time
	// Interval is the duration between quotes
	Interval time.Duration
	// Count is the number of quotes to generate
	Count int
	// InitialPrice is the starting mid price
	InitialPrice float64
	// Volatility is the per-step standard deviation of the mid, as a fraction of price
	Volatility float64
	// HalfSpread is half the bid/ask spread
	HalfSpread float64
	// TradeEvery emits a trade after every n-th quote; 0 disables trades
	TradeEvery int
	// CrossedRate is the probability that a quote has ask below bid
	CrossedRate float64
	// BrokerID is stamped on primary trades
	BrokerID int
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:    time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        1000,
		InitialPrice: 80.0,
		Volatility:   0.001,
		HalfSpread:   0.05,
		TradeEvery:   5,
		CrossedRate:  0.0,
		BrokerID:     1,
	}
}

// mids walks the mid price as geometric Brownian motion.
func (g *DataGenerator) mids(config GeneratorConfig) []float64 {
	out := make([]float64, config.Count)
	price := config.InitialPrice

	for i := range out {
		// Box-Muller transform for a standard normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := price * (1 + config.Volatility*z)
		if next <= 0 {
			next = price * 0.99
		}

		out[i] = roundToDecimals(price, 4)
		price = next
	}

	return out
}

func (g *DataGenerator) quote(config GeneratorConfig, mid float64) (float64, float64) {
	bid := roundToDecimals(mid-config.HalfSpread, 4)
	ask := roundToDecimals(mid+config.HalfSpread, 4)

	if config.CrossedRate > 0 && g.rng.Float64() < config.CrossedRate {
		bid, ask = ask, bid
	}

	return bid, ask
}

// GeneratePrimary creates a primary engine table.
func (g *DataGenerator) GeneratePrimary(config GeneratorConfig) source.PrimaryTable {
	var table source.PrimaryTable

	ts := config.StartTime
	for i, mid := range g.mids(config) {
		bid, ask := g.quote(config, mid)
		table.Orders = append(table.Orders, source.PrimaryOrder{
			Timestamp:    ts,
			BidBestPrice: optional.Some(bid),
			AskBestPrice: optional.Some(ask),
		})

		if config.TradeEvery > 0 && i%config.TradeEvery == 0 {
			side, price := 1, ask
			if g.rng.Intn(2) == 0 {
				side, price = -1, bid
			}

			table.Trades = append(table.Trades, source.PrimaryTrade{
				Timestamp: ts.Add(config.Interval / 2),
				Price:     price,
				Volume:    float64(1 + g.rng.Intn(20)),
				Side:      side,
				BrokerID:  config.BrokerID,
				Count:     1,
				TradeID:   fmt.Sprintf("p-%d", i),
			})
		}

		ts = ts.Add(config.Interval)
	}

	return table
}

// GenerateSynthetic creates a synthetic engine table.
func (g *DataGenerator) GenerateSynthetic(config GeneratorConfig) source.SyntheticTable {
	var table source.SyntheticTable

	ts := config.StartTime
	for i, mid := range g.mids(config) {
		bid, ask := g.quote(config, mid)
		table.Orders = append(table.Orders, source.SyntheticOrder{
			Timestamp: ts,
			Bid:       optional.Some(bid),
			Ask:       optional.Some(ask),
		})

		if config.TradeEvery > 0 && i%config.TradeEvery == 0 {
			trade := source.SyntheticTrade{
				Timestamp: ts.Add(config.Interval / 2),
				Buy:       optional.None[float64](),
				Sell:      optional.None[float64](),
			}

			// fills land strictly inside the quote so trade adjustment keeps them
			if g.rng.Intn(2) == 0 {
				trade.Buy = optional.Some(roundToDecimals(mid, 4))
			} else {
				trade.Sell = optional.Some(roundToDecimals(mid, 4))
			}

			table.Trades = append(table.Trades, trade)
		}

		ts = ts.Add(config.Interval)
	}

	return table
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
