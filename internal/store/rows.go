package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// Table names a tick store table.
type Table string

const (
	TablePrimaryOrders   Table = "primary_orders"
	TablePrimaryTrades   Table = "primary_trades"
	TableSyntheticOrders Table = "synthetic_orders"
	TableSyntheticTrades Table = "synthetic_trades"
)

// Tables lists every importable table.
var Tables = []Table{TablePrimaryOrders, TablePrimaryTrades, TableSyntheticOrders, TableSyntheticTrades}

var tableColumns = map[Table][]string{
	TablePrimaryOrders:   {"market", "contract", "time", "bid_best_price", "ask_best_price"},
	TablePrimaryTrades:   {"market", "contract", "time", "price", "volume", "side", "broker_id", "trade_count", "trade_id"},
	TableSyntheticOrders: {"market", "product", "unit", "relative_offset", "time", "bid", "ask"},
	TableSyntheticTrades: {"market", "product", "unit", "relative_offset", "time", "price", "volume", "side"},
}

// ParseTable resolves a table name.
func ParseTable(name string) (Table, error) {
	t := Table(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := tableColumns[t]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidRequest, "unknown table %q", name)
	}

	return t, nil
}

// Columns returns the column order of the table.
func (t Table) Columns() []string {
	return tableColumns[t]
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

type row interface {
	values() []any
}

// NullFloat is a CSV cell that may be empty.
type NullFloat struct {
	optional.Option[float64]
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (n NullFloat) MarshalCSV() (string, error) {
	if n.IsNone() {
		return "", nil
	}

	return strconv.FormatFloat(n.Unwrap(), 'f', -1, 64), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (n *NullFloat) UnmarshalCSV(value string) error {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "nan") {
		n.Option = optional.None[float64]()

		return nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}

	n.Option = optional.Some(f)

	return nil
}

func (n NullFloat) value() any {
	if n.IsNone() {
		return nil
	}

	return n.Unwrap()
}

// PrimaryOrderRow is a primary_orders row. Contract is the leg code, or
// both leg codes joined by "/" for an exchange-listed spread.
type PrimaryOrderRow struct {
	Market       string    `csv:"market"`
	Contract     string    `csv:"contract"`
	Time         time.Time `csv:"time"`
	BidBestPrice NullFloat `csv:"bid_best_price"`
	AskBestPrice NullFloat `csv:"ask_best_price"`
}

func (r PrimaryOrderRow) values() []any {
	return []any{r.Market, r.Contract, r.Time, r.BidBestPrice.value(), r.AskBestPrice.value()}
}

// PrimaryTradeRow is a primary_trades row.
type PrimaryTradeRow struct {
	Market     string    `csv:"market"`
	Contract   string    `csv:"contract"`
	Time       time.Time `csv:"time"`
	Price      float64   `csv:"price"`
	Volume     float64   `csv:"volume"`
	Side       int       `csv:"side"`
	BrokerID   int       `csv:"broker_id"`
	TradeCount int       `csv:"trade_count"`
	TradeID    string    `csv:"trade_id"`
}

func (r PrimaryTradeRow) values() []any {
	return []any{r.Market, r.Contract, r.Time, r.Price, r.Volume, r.Side, r.BrokerID, r.TradeCount, r.TradeID}
}

// SyntheticOrderRow is a synthetic_orders row: the quote of one relative
// period such as base M+1.
type SyntheticOrderRow struct {
	Market         string    `csv:"market"`
	Product        string    `csv:"product"`
	Unit           string    `csv:"unit"`
	RelativeOffset int       `csv:"relative_offset"`
	Time           time.Time `csv:"time"`
	Bid            NullFloat `csv:"bid"`
	Ask            NullFloat `csv:"ask"`
}

func (r SyntheticOrderRow) values() []any {
	return []any{r.Market, r.Product, r.Unit, r.RelativeOffset, r.Time, r.Bid.value(), r.Ask.value()}
}

// SyntheticTradeRow is a synthetic_trades row.
type SyntheticTradeRow struct {
	Market         string    `csv:"market"`
	Product        string    `csv:"product"`
	Unit           string    `csv:"unit"`
	RelativeOffset int       `csv:"relative_offset"`
	Time           time.Time `csv:"time"`
	Price          float64   `csv:"price"`
	Volume         float64   `csv:"volume"`
	Side           int       `csv:"side"`
}

func (r SyntheticTradeRow) values() []any {
	return []any{r.Market, r.Product, r.Unit, r.RelativeOffset, r.Time, r.Price, r.Volume, r.Side}
}

func toRows[T row](in []T) []row {
	out := make([]row, len(in))
	for i, r := range in {
		out[i] = r
	}

	return out
}
