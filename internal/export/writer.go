// Package export writes unified datasets to files.
package export

import (
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
)

// DatasetWriter writes market records to a destination.
type DatasetWriter interface {
	// Initialize prepares the destination.
	Initialize() error
	// Write appends one record.
	Write(record types.MarketRecord) error
	// Finalize flushes everything and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases resources; safe to call after Finalize.
	Close() error
	// GetOutputPath returns the configured output path.
	GetOutputPath() string
}

// Columns is the wire column order, after the timestamp index. The two flag
// columns follow the nine data columns.
var Columns = []string{
	"price", "volume", "action", "broker_id", "trade_count", "trade_id", "bid_price", "ask_price", "mid_price",
	"is_valid", "is_outlier",
}

// WireRow is a MarketRecord in wire layout. Absent values are empty cells.
type WireRow struct {
	Timestamp  string `csv:"timestamp"`
	Price      string `csv:"price"`
	Volume     string `csv:"volume"`
	Action     string `csv:"action"`
	BrokerID   string `csv:"broker_id"`
	TradeCount string `csv:"trade_count"`
	TradeID    string `csv:"trade_id"`
	BidPrice   string `csv:"bid_price"`
	AskPrice   string `csv:"ask_price"`
	MidPrice   string `csv:"mid_price"`
	IsValid    bool   `csv:"is_valid"`
	IsOutlier  bool   `csv:"is_outlier"`
}

// NewWireRow converts a record to its wire layout.
func NewWireRow(r types.MarketRecord) WireRow {
	row := WireRow{
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		IsValid:   r.IsValid(),
		IsOutlier: r.Outlier,
	}

	if r.Price.IsSome() {
		row.Price = formatFloat(r.Price.Unwrap())
	}

	if r.Volume.IsSome() {
		row.Volume = formatFloat(r.Volume.Unwrap())
	}

	if r.Action.IsSome() {
		row.Action = strconv.Itoa(int(r.Action.Unwrap()))
	}

	if r.BrokerID.IsSome() {
		row.BrokerID = strconv.Itoa(r.BrokerID.Unwrap())
	}

	if r.TradeCount.IsSome() {
		row.TradeCount = strconv.Itoa(r.TradeCount.Unwrap())
	}

	if r.TradeID.IsSome() {
		row.TradeID = r.TradeID.Unwrap()
	}

	if r.BidPrice.IsSome() {
		row.BidPrice = formatFloat(r.BidPrice.Unwrap())
	}

	if r.AskPrice.IsSome() {
		row.AskPrice = formatFloat(r.AskPrice.Unwrap())
	}

	if r.MidPrice.IsSome() {
		row.MidPrice = formatFloat(r.MidPrice.Unwrap())
	}

	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteDataset runs a writer over every record of a dataset and returns the output path.
func WriteDataset(w DatasetWriter, ds types.Dataset) (string, error) {
	if err := w.Initialize(); err != nil {
		return "", err
	}
	defer w.Close()

	for _, r := range ds.Records {
		if err := w.Write(r); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
