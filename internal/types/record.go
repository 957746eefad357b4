package types

import (
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Source identifies where a record came from.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSynthetic Source = "synthetic"
	SourceMerged    Source = "merged"
)

// DataKind distinguishes trades from quotes.
type DataKind string

const (
	DataKindTrade DataKind = "trade"
	DataKindQuote DataKind = "quote"
)

// Action is the aggressor side of a trade.
type Action int

const (
	ActionBuy  Action = 1
	ActionSell Action = -1
)

func (a Action) String() string {
	if a == ActionSell {
		return "sell"
	}

	return "buy"
}

// MarketRecord is the canonical row shared by every pipeline stage.
// Trade rows carry the trade fields, quote rows carry bid/ask/mid;
// fields that do not apply to a kind are None.
type MarketRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	Kind      DataKind  `json:"kind"`

	Price      optional.Option[float64] `json:"price"`
	Volume     optional.Option[float64] `json:"volume"`
	Action     optional.Option[Action]  `json:"action"`
	BrokerID   optional.Option[int]     `json:"broker_id"`
	TradeCount optional.Option[int]     `json:"trade_count"`
	TradeID    optional.Option[string]  `json:"trade_id"`

	BidPrice optional.Option[float64] `json:"bid_price"`
	AskPrice optional.Option[float64] `json:"ask_price"`
	MidPrice optional.Option[float64] `json:"mid_price"`

	// Invalid is set by non-strict validation on crossed quotes.
	Invalid bool `json:"invalid,omitempty"`
	// Outlier is set by outlier filters running in mark-only mode.
	Outlier bool `json:"outlier,omitempty"`
}

// NewQuote creates a quote record and derives the mid price when both sides are present.
func NewQuote(ts time.Time, source Source, bid, ask optional.Option[float64]) MarketRecord {
	return MarketRecord{
		Timestamp:  ts,
		Source:     source,
		Kind:       DataKindQuote,
		Price:      optional.None[float64](),
		Volume:     optional.None[float64](),
		Action:     optional.None[Action](),
		BrokerID:   optional.None[int](),
		TradeCount: optional.None[int](),
		TradeID:    optional.None[string](),
		BidPrice:   bid,
		AskPrice:   ask,
		MidPrice:   MidPrice(bid, ask),
	}
}

// Trade holds the fields of a trade record before it becomes a MarketRecord.
type Trade struct {
	Price      float64
	Volume     float64
	Action     Action
	BrokerID   int
	TradeCount int
	TradeID    string
}

// NewTrade creates a trade record.
func NewTrade(ts time.Time, source Source, t Trade) MarketRecord {
	return MarketRecord{
		Timestamp:  ts,
		Source:     source,
		Kind:       DataKindTrade,
		Price:      optional.Some(t.Price),
		Volume:     optional.Some(t.Volume),
		Action:     optional.Some(t.Action),
		BrokerID:   optional.Some(t.BrokerID),
		TradeCount: optional.Some(t.TradeCount),
		TradeID:    optional.Some(t.TradeID),
		BidPrice:   optional.None[float64](),
		AskPrice:   optional.None[float64](),
		MidPrice:   optional.None[float64](),
	}
}

// Finite returns v unless it is NaN or infinite, which count as absent.
func Finite(v optional.Option[float64]) optional.Option[float64] {
	if v.IsNone() || math.IsNaN(v.Unwrap()) || math.IsInf(v.Unwrap(), 0) {
		return optional.None[float64]()
	}

	return v
}

// MidPrice returns (bid+ask)/2, or None unless both sides are present and finite.
func MidPrice(bid, ask optional.Option[float64]) optional.Option[float64] {
	bid, ask = Finite(bid), Finite(ask)
	if bid.IsNone() || ask.IsNone() {
		return optional.None[float64]()
	}

	mid, _ := decimal.NewFromFloat(bid.Unwrap()).
		Add(decimal.NewFromFloat(ask.Unwrap())).
		Div(decimal.NewFromInt(2)).
		Float64()

	return optional.Some(mid)
}

func (r MarketRecord) IsTrade() bool {
	return r.Kind == DataKindTrade
}

func (r MarketRecord) IsQuote() bool {
	return r.Kind == DataKindQuote
}

// IsValid reports whether the record passed validation.
func (r MarketRecord) IsValid() bool {
	return !r.Invalid
}

// IsCrossed reports whether a quote has both sides present with ask below bid.
func (r MarketRecord) IsCrossed() bool {
	if r.BidPrice.IsNone() || r.AskPrice.IsNone() {
		return false
	}

	return r.AskPrice.Unwrap() < r.BidPrice.Unwrap()
}

// TradeKey identifies a trade for exact-duplicate detection.
type TradeKey struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
	Action    Action
	BrokerID  int
	TradeID   string
}

// Key returns the dedup key of a trade record.
func (r MarketRecord) Key() TradeKey {
	return TradeKey{
		Timestamp: r.Timestamp.UTC(),
		Price:     r.Price.TakeOr(0),
		Volume:    r.Volume.TakeOr(0),
		Action:    r.Action.TakeOr(0),
		BrokerID:  r.BrokerID.TakeOr(0),
		TradeID:   r.TradeID.TakeOr(""),
	}
}

// SortByTimestamp sorts records by time, keeping the relative order of equal timestamps.
func SortByTimestamp(records []MarketRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
