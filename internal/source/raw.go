package source

import (
	"time"

	"github.com/moznion/go-optional"
)

// PrimaryOrder is one best bid/ask row as returned by the primary engine.
type PrimaryOrder struct {
	Timestamp    time.Time
	BidBestPrice optional.Option[float64]
	AskBestPrice optional.Option[float64]
}

// PrimaryTrade is one executed trade as returned by the primary engine.
// Side is +1 for buyer-initiated and -1 for seller-initiated trades.
type PrimaryTrade struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
	Side      int
	BrokerID  int
	Count     int
	TradeID   string
}

// PrimaryTable is the raw result of one primary query.
type PrimaryTable struct {
	Orders []PrimaryOrder
	Trades []PrimaryTrade
}

// Len returns the total number of raw rows.
func (t PrimaryTable) Len() int {
	return len(t.Orders) + len(t.Trades)
}

// SyntheticOrder is one spread bid/ask row from the synthetic engine.
type SyntheticOrder struct {
	Timestamp time.Time
	Bid       optional.Option[float64]
	Ask       optional.Option[float64]
}

// SyntheticTrade holds the synthetic buy and sell fills at one timestamp.
// Either side may be absent.
type SyntheticTrade struct {
	Timestamp time.Time
	Buy       optional.Option[float64]
	Sell      optional.Option[float64]
}

// SyntheticTable is the raw result of one or more synthetic queries.
type SyntheticTable struct {
	Orders []SyntheticOrder
	Trades []SyntheticTrade
}

// Len returns the total number of raw rows.
func (t SyntheticTable) Len() int {
	return len(t.Orders) + len(t.Trades)
}
