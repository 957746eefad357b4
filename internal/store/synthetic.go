package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// legSeries is the quote and trade history of one relative period.
type legSeries struct {
	leg    source.SyntheticLeg
	stamps []time.Time
	bids   []optional.Option[float64]
	asks   []optional.Option[float64]
	trades []SyntheticTradeRow
}

// quoteAt returns the last known bid and ask at or before ts.
func (l *legSeries) quoteAt(ts time.Time) (optional.Option[float64], optional.Option[float64]) {
	i := sort.Search(len(l.stamps), func(i int) bool { return l.stamps[i].After(ts) })
	if i == 0 {
		return optional.None[float64](), optional.None[float64]()
	}

	return l.bids[i-1], l.asks[i-1]
}

// side returns the price at which the leg trades when the spread moves in
// direction (+1 buy, -1 sell): the ask when the leg is bought, else the bid.
func (l *legSeries) side(ts time.Time, direction int) optional.Option[float64] {
	bid, ask := l.quoteAt(ts)
	if direction*sign(l.leg.Coefficient) > 0 {
		return ask
	}

	return bid
}

// FetchSynthetic implements source.SyntheticEngine. Spread quotes are the
// coefficient-weighted sum of the legs' executable sides. A trade on one leg
// implies a spread fill priced against the other legs' quotes.
func (s *Store) FetchSynthetic(ctx context.Context, query source.SyntheticQuery) (source.SyntheticTable, error) {
	series := make([]*legSeries, len(query.Legs))
	for i, leg := range query.Legs {
		l, err := s.loadLeg(ctx, leg, query.Window, query.Session)
		if err != nil {
			return source.SyntheticTable{}, err
		}

		series[i] = l
	}

	table := source.SyntheticTable{
		Orders: combineQuotes(series),
		Trades: combineTrades(series),
	}

	s.logger.Debug("Synthetic query served",
		zap.Stringer("window", query.Window),
		zap.Int("legs", len(query.Legs)),
		zap.Int("orders", len(table.Orders)),
		zap.Int("trades", len(table.Trades)),
	)

	return table, nil
}

func (s *Store) loadLeg(ctx context.Context, leg source.SyntheticLeg, window types.DateRange, session source.Session) (*legSeries, error) {
	filter := squirrel.And{
		squirrel.Eq{
			"market":          leg.Market,
			"product":         string(leg.Product),
			"unit":            string(leg.Unit),
			"relative_offset": leg.Offset,
		},
		squirrel.GtOrEq{"time": window.Start},
		squirrel.Lt{"time": window.End},
	}

	l := &legSeries{leg: leg}

	query, args, err := s.sq.Select("time", "bid", "ask").
		From(string(TableSyntheticOrders)).Where(filter).OrderBy("time").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build synthetic orders query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query synthetic orders", err)
	}
	defer rows.Close()

	bid, ask := optional.None[float64](), optional.None[float64]()
	for rows.Next() {
		var (
			ts   time.Time
			b, a sql.NullFloat64
		)

		if err := rows.Scan(&ts, &b, &a); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan synthetic order", err)
		}

		if !session.Contains(ts) {
			continue
		}

		// sides are carried forward independently
		if v := nullable(b); v.IsSome() {
			bid = v
		}

		if v := nullable(a); v.IsSome() {
			ask = v
		}

		l.stamps = append(l.stamps, ts.UTC())
		l.bids = append(l.bids, bid)
		l.asks = append(l.asks, ask)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read synthetic orders", err)
	}

	query, args, err = s.sq.Select("time", "price", "volume", "side").
		From(string(TableSyntheticTrades)).Where(filter).OrderBy("time").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build synthetic trades query", err)
	}

	tradeRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query synthetic trades", err)
	}
	defer tradeRows.Close()

	for tradeRows.Next() {
		var t SyntheticTradeRow
		if err := tradeRows.Scan(&t.Time, &t.Price, &t.Volume, &t.Side); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan synthetic trade", err)
		}

		if !session.Contains(t.Time) {
			continue
		}

		t.Time = t.Time.UTC()
		l.trades = append(l.trades, t)
	}

	return l, tradeRows.Err()
}

func combineQuotes(series []*legSeries) []source.SyntheticOrder {
	var stamps []time.Time
	for _, l := range series {
		stamps = append(stamps, l.stamps...)
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	var out []source.SyntheticOrder
	for i, ts := range stamps {
		if i > 0 && ts.Equal(stamps[i-1]) {
			continue
		}

		bid := weightedSum(series, ts, -1, -1)
		ask := weightedSum(series, ts, 1, -1)
		if bid.IsNone() && ask.IsNone() {
			continue
		}

		out = append(out, source.SyntheticOrder{Timestamp: ts, Bid: bid, Ask: ask})
	}

	return out
}

func combineTrades(series []*legSeries) []source.SyntheticTrade {
	var out []source.SyntheticTrade
	for i, l := range series {
		for _, t := range l.trades {
			direction := t.Side * sign(l.leg.Coefficient)
			if direction == 0 || types.Finite(optional.Some(t.Price)).IsNone() {
				continue
			}

			price := decimal.NewFromFloat(l.leg.Coefficient).Mul(decimal.NewFromFloat(t.Price))
			other := weightedSum(series, t.Time, direction, i)
			if other.IsNone() {
				continue
			}

			implied, _ := price.Add(decimal.NewFromFloat(other.Unwrap())).Float64()

			trade := source.SyntheticTrade{Timestamp: t.Time}
			if direction > 0 {
				trade.Buy = optional.Some(implied)
			} else {
				trade.Sell = optional.Some(implied)
			}

			out = append(out, trade)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	return out
}

// weightedSum adds coefficient * executable side over every leg except skip.
// It is None when any of those legs has no price on that side yet.
func weightedSum(series []*legSeries, ts time.Time, direction int, skip int) optional.Option[float64] {
	total := decimal.Zero
	for i, l := range series {
		if i == skip {
			continue
		}

		price := l.side(ts, direction)
		if price.IsNone() {
			return optional.None[float64]()
		}

		total = total.Add(decimal.NewFromFloat(l.leg.Coefficient).Mul(decimal.NewFromFloat(price.Unwrap())))
	}

	f, _ := total.Float64()

	return optional.Some(f)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// InsertSynthetic writes the relative-period history of one leg.
func (s *Store) InsertSynthetic(ctx context.Context, orders []SyntheticOrderRow, trades []SyntheticTradeRow) error {
	if err := s.insert(ctx, TableSyntheticOrders, toRows(orders)); err != nil {
		return err
	}

	return s.insert(ctx, TableSyntheticTrades, toRows(trades))
}
