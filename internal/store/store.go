// Package store is a DuckDB tick store that serves both the primary and the
// synthetic engine from local tables.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/version"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

const schemaVersionKey = "schema_version"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS primary_orders (
		market TEXT,
		contract TEXT,
		time TIMESTAMP,
		bid_best_price DOUBLE,
		ask_best_price DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS primary_trades (
		market TEXT,
		contract TEXT,
		time TIMESTAMP,
		price DOUBLE,
		volume DOUBLE,
		side INTEGER,
		broker_id INTEGER,
		trade_count INTEGER,
		trade_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS synthetic_orders (
		market TEXT,
		product TEXT,
		unit TEXT,
		relative_offset INTEGER,
		time TIMESTAMP,
		bid DOUBLE,
		ask DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS synthetic_trades (
		market TEXT,
		product TEXT,
		unit TEXT,
		relative_offset INTEGER,
		time TIMESTAMP,
		price DOUBLE,
		volume DOUBLE,
		side INTEGER
	)`,
}

// Store is a DuckDB-backed tick store.
type Store struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// Open opens or creates the store at path (":memory:" for an in-memory store),
// creates missing tables and checks the schema version.
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to open tick store %s", path)
	}

	s := &Store{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: log.Named("store"),
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()

		return nil, err
	}

	s.logger.Debug("Tick store opened", zap.String("path", path))

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the schema version recorded in the store.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	query, args, err := s.sq.Select("value").From("store_meta").
		Where(squirrel.Eq{"key": schemaVersionKey}).ToSql()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to build schema version query", err)
	}

	var value string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return "", err
	}

	return value, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create tick store tables", err)
		}
	}

	stored, err := s.SchemaVersion(ctx)
	if stderrors.Is(err, sql.ErrNoRows) {
		return s.setMeta(ctx, schemaVersionKey, version.SchemaVersion)
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read schema version", err)
	}

	return version.CheckSchemaCompatibility(stored, version.SchemaVersion)
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	query, args, err := s.sq.Insert("store_meta").Columns("key", "value").Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build meta insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to write %s", key)
	}

	return nil
}

// insert writes rows into table inside one transaction with a prepared statement.
func (s *Store) insert(ctx context.Context, table Table, rows []row) (err error) {
	if len(rows) == 0 {
		return nil
	}

	columns := table.Columns()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	placeholders := squirrel.Placeholders(len(columns))
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, joinColumns(columns), placeholders))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to prepare insert into %s", table)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, r.values()...); err != nil {
			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert into %s", table)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to commit insert into %s", table)
	}

	s.logger.Debug("Rows inserted", zap.String("table", string(table)), zap.Int("rows", len(rows)))

	return nil
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table Table) (int, error) {
	query, args, err := s.sq.Select("COUNT(*)").From(string(table)).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", table)
	}

	return count, nil
}
