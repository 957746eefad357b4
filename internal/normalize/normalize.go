// Package normalize maps raw engine tables onto canonical MarketRecord rows.
package normalize

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// SyntheticBrokerID marks trades produced by the synthetic engine.
const SyntheticBrokerID = 9999

// Primary converts a primary table into a dataset sorted by timestamp.
func Primary(table source.PrimaryTable) types.Dataset {
	records := make([]types.MarketRecord, 0, table.Len())
	records = append(records, PrimaryQuotes(table.Orders)...)
	records = append(records, PrimaryTrades(table.Trades)...)

	return types.NewDataset(records)
}

// Synthetic converts a synthetic table into a dataset sorted by timestamp.
func Synthetic(table source.SyntheticTable) types.Dataset {
	records := make([]types.MarketRecord, 0, table.Len())
	records = append(records, SyntheticQuotes(table.Orders)...)
	records = append(records, SyntheticTrades(table.Trades)...)

	return types.NewDataset(records)
}

// PrimaryQuotes renames bidbestprice/askbestprice to bid/ask and derives the mid.
func PrimaryQuotes(orders []source.PrimaryOrder) []types.MarketRecord {
	out := make([]types.MarketRecord, 0, len(orders))
	for _, o := range orders {
		out = append(out, types.NewQuote(o.Timestamp, types.SourcePrimary, clean(o.BidBestPrice), clean(o.AskBestPrice)))
	}

	return out
}

// PrimaryTrades passes primary trades through. A zero side leaves the action absent.
func PrimaryTrades(trades []source.PrimaryTrade) []types.MarketRecord {
	out := make([]types.MarketRecord, 0, len(trades))
	for _, t := range trades {
		count := t.Count
		if count == 0 {
			count = 1
		}

		r := types.NewTrade(t.Timestamp, types.SourcePrimary, types.Trade{
			Price:      t.Price,
			Volume:     t.Volume,
			BrokerID:   t.BrokerID,
			TradeCount: count,
			TradeID:    t.TradeID,
		})

		switch {
		case t.Side > 0:
			r.Action = optional.Some(types.ActionBuy)
		case t.Side < 0:
			r.Action = optional.Some(types.ActionSell)
		default:
			r.Action = optional.None[types.Action]()
		}

		out = append(out, r)
	}

	return out
}

// SyntheticQuotes maps synthetic bid/ask rows to quotes.
func SyntheticQuotes(orders []source.SyntheticOrder) []types.MarketRecord {
	out := make([]types.MarketRecord, 0, len(orders))
	for _, o := range orders {
		out = append(out, types.NewQuote(o.Timestamp, types.SourceSynthetic, clean(o.Bid), clean(o.Ask)))
	}

	return out
}

// SyntheticTrades explodes every buy and sell fill into its own trade with
// volume 1, the synthetic broker id and a trade id built from side and time.
// A row with both fills yields a buy and a sell at the same timestamp.
func SyntheticTrades(trades []source.SyntheticTrade) []types.MarketRecord {
	out := make([]types.MarketRecord, 0, len(trades))
	for _, t := range trades {
		if buy := clean(t.Buy); buy.IsSome() {
			out = append(out, syntheticFill(t, types.ActionBuy, buy.Unwrap()))
		}

		if sell := clean(t.Sell); sell.IsSome() {
			out = append(out, syntheticFill(t, types.ActionSell, sell.Unwrap()))
		}
	}

	return out
}

// SyntheticTradeID returns the generated id of a synthetic fill.
func SyntheticTradeID(t source.SyntheticTrade, action types.Action) string {
	return fmt.Sprintf("synth_%s_%d", action, t.Timestamp.UnixNano())
}

func syntheticFill(t source.SyntheticTrade, action types.Action, price float64) types.MarketRecord {
	return types.NewTrade(t.Timestamp, types.SourceSynthetic, types.Trade{
		Price:      price,
		Volume:     1,
		Action:     action,
		BrokerID:   SyntheticBrokerID,
		TradeCount: 1,
		TradeID:    SyntheticTradeID(t, action),
	})
}

// clean treats NaN and infinities as absent.
func clean(v optional.Option[float64]) optional.Option[float64] {
	return types.Finite(v)
}
