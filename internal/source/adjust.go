package source

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// AdjustBuffer is the distance from the synthetic quote inside which a fill
// is treated as quote noise rather than a trade.
const AdjustBuffer = 0.001

// AdjustTrades removes synthetic fills that sit at or inside the prevailing
// synthetic quote: buys at or above ask-AdjustBuffer and sells at or below
// bid+AdjustBuffer. The prevailing quote is the last order at or before the
// trade. Rows left with neither fill are dropped.
func AdjustTrades(trades []SyntheticTrade, orders []SyntheticOrder) []SyntheticTrade {
	if len(trades) == 0 || len(orders) == 0 {
		return trades
	}

	sorted := make([]SyntheticOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]SyntheticTrade, 0, len(trades))
	for _, tr := range trades {
		bid, ask := prevailingQuote(sorted, tr.Timestamp)

		if tr.Buy.IsSome() && ask.IsSome() && tr.Buy.Unwrap() >= ask.Unwrap()-AdjustBuffer {
			tr.Buy = optional.None[float64]()
		}

		if tr.Sell.IsSome() && bid.IsSome() && tr.Sell.Unwrap() <= bid.Unwrap()+AdjustBuffer {
			tr.Sell = optional.None[float64]()
		}

		if tr.Buy.IsNone() && tr.Sell.IsNone() {
			continue
		}

		out = append(out, tr)
	}

	return out
}

// prevailingQuote forward-fills bid and ask independently up to ts.
func prevailingQuote(orders []SyntheticOrder, ts time.Time) (optional.Option[float64], optional.Option[float64]) {
	n := sort.Search(len(orders), func(i int) bool {
		return orders[i].Timestamp.After(ts)
	})

	bid, ask := optional.None[float64](), optional.None[float64]()
	for i := n - 1; i >= 0 && (bid.IsNone() || ask.IsNone()); i-- {
		if bid.IsNone() && present(orders[i].Bid) {
			bid = orders[i].Bid
		}

		if ask.IsNone() && present(orders[i].Ask) {
			ask = orders[i].Ask
		}
	}

	return bid, ask
}

func present(v optional.Option[float64]) bool {
	return types.Finite(v).IsSome()
}

type optionKey struct {
	set   bool
	value float64
}

func keyOf(v optional.Option[float64]) optionKey {
	if !present(v) {
		return optionKey{}
	}

	return optionKey{set: true, value: v.Unwrap()}
}

// dedupSynthetic sorts both tables by timestamp and drops exact duplicate rows.
func dedupSynthetic(t SyntheticTable) SyntheticTable {
	type orderKey struct {
		ts       time.Time
		bid, ask optionKey
	}

	type tradeKey struct {
		ts        time.Time
		buy, sell optionKey
	}

	sort.SliceStable(t.Orders, func(i, j int) bool { return t.Orders[i].Timestamp.Before(t.Orders[j].Timestamp) })
	sort.SliceStable(t.Trades, func(i, j int) bool { return t.Trades[i].Timestamp.Before(t.Trades[j].Timestamp) })

	seenOrders := make(map[orderKey]struct{}, len(t.Orders))
	orders := make([]SyntheticOrder, 0, len(t.Orders))
	for _, o := range t.Orders {
		k := orderKey{ts: o.Timestamp.UTC(), bid: keyOf(o.Bid), ask: keyOf(o.Ask)}
		if _, ok := seenOrders[k]; ok {
			continue
		}

		seenOrders[k] = struct{}{}
		orders = append(orders, o)
	}

	seenTrades := make(map[tradeKey]struct{}, len(t.Trades))
	trades := make([]SyntheticTrade, 0, len(t.Trades))
	for _, tr := range t.Trades {
		k := tradeKey{ts: tr.Timestamp.UTC(), buy: keyOf(tr.Buy), sell: keyOf(tr.Sell)}
		if _, ok := seenTrades[k]; ok {
			continue
		}

		seenTrades[k] = struct{}{}
		trades = append(trades, tr)
	}

	return SyntheticTable{Orders: orders, Trades: trades}
}
