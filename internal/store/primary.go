package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// ContractKey is the primary table key of a single leg or a listed spread.
func ContractKey(legs []types.ContractSpec) string {
	codes := make([]string, len(legs))
	for i, leg := range legs {
		codes[i] = leg.Code()
	}

	return strings.Join(codes, "/")
}

// FetchPrimary implements source.PrimaryEngine.
func (s *Store) FetchPrimary(ctx context.Context, query source.PrimaryQuery) (source.PrimaryTable, error) {
	filter := squirrel.And{
		squirrel.Eq{"market": query.Market, "contract": ContractKey(query.Legs)},
		squirrel.GtOrEq{"time": query.Window.Start},
		squirrel.Lt{"time": query.Window.End},
	}

	orders, err := s.primaryOrders(ctx, filter, query.Session)
	if err != nil {
		return source.PrimaryTable{}, err
	}

	trades, err := s.primaryTrades(ctx, filter, query.Session)
	if err != nil {
		return source.PrimaryTable{}, err
	}

	s.logger.Debug("Primary query served",
		zap.String("market", query.Market),
		zap.String("contract", ContractKey(query.Legs)),
		zap.Int("orders", len(orders)),
		zap.Int("trades", len(trades)),
	)

	return source.PrimaryTable{Orders: orders, Trades: trades}, nil
}

func (s *Store) primaryOrders(ctx context.Context, filter squirrel.Sqlizer, session source.Session) ([]source.PrimaryOrder, error) {
	query, args, err := s.sq.Select("time", "bid_best_price", "ask_best_price").
		From(string(TablePrimaryOrders)).Where(filter).OrderBy("time").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build primary orders query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query primary orders", err)
	}
	defer rows.Close()

	var out []source.PrimaryOrder
	for rows.Next() {
		var (
			ts       time.Time
			bid, ask sql.NullFloat64
		)

		if err := rows.Scan(&ts, &bid, &ask); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan primary order", err)
		}

		if !session.Contains(ts) {
			continue
		}

		out = append(out, source.PrimaryOrder{Timestamp: ts.UTC(), BidBestPrice: nullable(bid), AskBestPrice: nullable(ask)})
	}

	return out, rows.Err()
}

func (s *Store) primaryTrades(ctx context.Context, filter squirrel.Sqlizer, session source.Session) ([]source.PrimaryTrade, error) {
	query, args, err := s.sq.Select("time", "price", "volume", "side", "broker_id", "trade_count", "trade_id").
		From(string(TablePrimaryTrades)).Where(filter).OrderBy("time").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build primary trades query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query primary trades", err)
	}
	defer rows.Close()

	var out []source.PrimaryTrade
	for rows.Next() {
		var t source.PrimaryTrade
		if err := rows.Scan(&t.Timestamp, &t.Price, &t.Volume, &t.Side, &t.BrokerID, &t.Count, &t.TradeID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan primary trade", err)
		}

		if !session.Contains(t.Timestamp) {
			continue
		}

		t.Timestamp = t.Timestamp.UTC()
		out = append(out, t)
	}

	return out, rows.Err()
}

// InsertPrimary writes a primary table for the given legs.
func (s *Store) InsertPrimary(ctx context.Context, legs []types.ContractSpec, table source.PrimaryTable) error {
	market := source.CombinedMarket(legs)
	contract := ContractKey(legs)

	orders := make([]PrimaryOrderRow, len(table.Orders))
	for i, o := range table.Orders {
		orders[i] = PrimaryOrderRow{
			Market:       market,
			Contract:     contract,
			Time:         o.Timestamp,
			BidBestPrice: NullFloat{o.BidBestPrice},
			AskBestPrice: NullFloat{o.AskBestPrice},
		}
	}

	trades := make([]PrimaryTradeRow, len(table.Trades))
	for i, t := range table.Trades {
		trades[i] = PrimaryTradeRow{
			Market:     market,
			Contract:   contract,
			Time:       t.Timestamp,
			Price:      t.Price,
			Volume:     t.Volume,
			Side:       t.Side,
			BrokerID:   t.BrokerID,
			TradeCount: t.Count,
			TradeID:    t.TradeID,
		}
	}

	if err := s.insert(ctx, TablePrimaryOrders, toRows(orders)); err != nil {
		return err
	}

	return s.insert(ctx, TablePrimaryTrades, toRows(trades))
}

// nullable maps NULL, NaN and infinite prices to None.
func nullable(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}

	return types.Finite(optional.Some(v.Float64))
}
