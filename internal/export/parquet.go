package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// ParquetWriter stages records in an in-memory DuckDB table and copies the
// table to a parquet file on Finalize.
type ParquetWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	logger     *logger.Logger
}

// NewParquetWriter creates a ParquetWriter for outputPath.
func NewParquetWriter(outputPath string, log *logger.Logger) DatasetWriter {
	return &ParquetWriter{outputPath: outputPath, logger: log.Named("parquet")}
}

// Initialize opens the database, creates the staging table and prepares the insert.
func (w *ParquetWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE spread_data (
			timestamp TIMESTAMP,
			price DOUBLE,
			volume DOUBLE,
			action INTEGER,
			broker_id INTEGER,
			trade_count INTEGER,
			trade_id TEXT,
			bid_price DOUBLE,
			ask_price DOUBLE,
			mid_price DOUBLE,
			is_valid BOOLEAN,
			is_outlier BOOLEAN
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeExportFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeExportFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(fmt.Sprintf(`INSERT INTO spread_data (timestamp, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.Join(Columns, ", ")))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeExportFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts one record; absent values become NULL.
func (w *ParquetWriter) Write(r types.MarketRecord) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeExportFailed, "writer not initialized")
	}

	var action any
	if r.Action.IsSome() {
		action = int(r.Action.Unwrap())
	}

	_, err := w.stmt.Exec(
		r.Timestamp.UTC(),
		orNull(r.Price),
		orNull(r.Volume),
		action,
		orNull(r.BrokerID),
		orNull(r.TradeCount),
		orNull(r.TradeID),
		orNull(r.BidPrice),
		orNull(r.AskPrice),
		orNull(r.MidPrice),
		r.IsValid(),
		r.Outlier,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to insert record", err)
	}

	return nil
}

// Finalize commits and copies the table, ordered by time, to the parquet file.
func (w *ParquetWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeExportFailed, "writer not initialized")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeExportFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM spread_data ORDER BY timestamp) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(w.outputPath, "'", "''")))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "failed to export to parquet", err)
	}

	w.logger.Info("Exported parquet", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement, any open transaction and the database.
func (w *ParquetWriter) Close() error {
	var closeErr error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErr = err
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil && closeErr == nil {
			closeErr = err
		}

		w.db = nil
	}

	if closeErr != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to close parquet writer", closeErr)
	}

	return nil
}

// GetOutputPath returns the parquet file path.
func (w *ParquetWriter) GetOutputPath() string {
	return w.outputPath
}

func orNull[T any](v optional.Option[T]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}
