package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// Import loads a parquet or CSV file into table, picking the reader by extension.
// It returns the number of rows imported.
func (s *Store) Import(ctx context.Context, table Table, path string) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return s.ImportParquet(ctx, table, path)
	case ".csv":
		return s.ImportCSV(ctx, table, path)
	default:
		return 0, errors.Newf(errors.ErrCodeImportFailed, "unsupported file type %q, expected .parquet or .csv", filepath.Ext(path))
	}
}

// ImportParquet copies the table's columns from a parquet file. Extra columns are ignored.
func (s *Store) ImportParquet(ctx context.Context, table Table, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeImportFailed, err, "cannot read %s", path)
	}

	columns := joinColumns(table.Columns())
	// read_parquet does not take a bound parameter for the path
	query := fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM read_parquet('%s')`,
		table, columns, columns, strings.ReplaceAll(path, "'", "''"))

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeImportFailed, err, "failed to import %s into %s", path, table)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeImportFailed, "failed to count imported rows", err)
	}

	s.logger.Info("Parquet imported", zap.String("path", path), zap.String("table", string(table)), zap.Int64("rows", n))

	return int(n), nil
}

// ImportCSV reads a CSV file with a header row named after the table's columns.
// Timestamps are RFC 3339; empty price cells are null.
func (s *Store) ImportCSV(ctx context.Context, table Table, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeImportFailed, err, "cannot read %s", path)
	}
	defer file.Close()

	var rows []row

	switch table {
	case TablePrimaryOrders:
		var in []PrimaryOrderRow
		err = gocsv.UnmarshalFile(file, &in)
		rows = toRows(in)
	case TablePrimaryTrades:
		var in []PrimaryTradeRow
		err = gocsv.UnmarshalFile(file, &in)
		rows = toRows(in)
	case TableSyntheticOrders:
		var in []SyntheticOrderRow
		err = gocsv.UnmarshalFile(file, &in)
		rows = toRows(in)
	case TableSyntheticTrades:
		var in []SyntheticTradeRow
		err = gocsv.UnmarshalFile(file, &in)
		rows = toRows(in)
	default:
		return 0, errors.Newf(errors.ErrCodeImportFailed, "unknown table %q", table)
	}

	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeImportFailed, err, "failed to parse %s", path)
	}

	if err := s.insert(ctx, table, rows); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeImportFailed, err, "failed to import %s into %s", path, table)
	}

	s.logger.Info("CSV imported", zap.String("path", path), zap.String("table", string(table)), zap.Int("rows", len(rows)))

	return len(rows), nil
}
