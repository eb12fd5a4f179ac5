// Package sqlite implements the derived index store: one table per
// collection inside a single SQLite database file, each row a stringified
// projection of one document plus the content hash it was derived from.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// HashColumn is the reserved column recording the content hash of the file
// a row was derived from. A mismatch against the current file marks the row
// stale.
const HashColumn = "_hash"

// Store manages the index database file. Every operation opens a short-lived
// connection and releases it on all exit paths; no connections are cached
// between calls. Concurrent use is only as safe as SQLite's own locking.
type Store struct {
	Path   string
	logger *slog.Logger
}

// NewStore creates an index store backed by the database file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{Path: path, logger: logger}
}

// busyTimeoutMillis is how long SQLite waits on a locked database before
// returning SQLITE_BUSY. Concurrent callers hold short write transactions, so
// waiting beats failing.
const busyTimeoutMillis = 10000

// Open opens a connection to the index database, creating the parent
// directory if needed. The caller owns the handle and must close it.
func (s *Store) Open() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db %s: %w", s.Path, err)
	}
	if _, err := db.Exec(fmt.Sprintf("pragma busy_timeout = %d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// EnsureSchema idempotently creates the collection's table (one text column
// per indexed field plus the hash column) and one lookup index per field.
// Safe to call repeatedly; only the first successful call has an effect.
func (s *Store) EnsureSchema(ctx context.Context, table string, fields []string) error {
	db, err := s.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	columns := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		columns = append(columns, quoteIdent(field)+" text")
	}
	columns = append(columns, quoteIdent(HashColumn)+" text")

	createTable := fmt.Sprintf("create table if not exists %s (%s)",
		quoteIdent(table), strings.Join(columns, ", "))
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for _, field := range fields {
		createIndex := fmt.Sprintf("create index if not exists %s on %s (%s)",
			quoteIdent("index_"+table+"_"+field), quoteIdent(table), quoteIdent(field))
		if _, err := db.ExecContext(ctx, createIndex); err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", table, field, err)
		}
	}

	s.logger.Debug("ensured index schema", "table", table, "fields", fields)
	return nil
}

// UpsertRow replaces the row for id with freshly stringified values and the
// given content hash. Delete-then-insert rather than a true upsert: it
// tolerates changed column sets without migration logic. values must follow
// the order of fields and may contain nils (SQL nulls).
func (s *Store) UpsertRow(ctx context.Context, table string, id string, fields []string, values []any, hash string) error {
	db, err := s.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	if err := upsertRowTx(ctx, tx, table, id, fields, values, hash); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteRow removes the row for id. Removing an absent row is a no-op, not
// an error.
func (s *Store) DeleteRow(ctx context.Context, table string, id string) error {
	db, err := s.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	stmt := fmt.Sprintf("delete from %s where _id = ?", quoteIdent(table))
	if _, err := db.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("failed to delete index row %s/%s: %w", table, id, err)
	}
	return nil
}

// LookupHash returns the recorded content hash for id, with ok false when no
// row exists.
func (s *Store) LookupHash(ctx context.Context, table string, id string) (hash string, ok bool, err error) {
	db, err := s.Open()
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	return lookupHash(ctx, db, table, id)
}

// SelectIDs runs a compiled select statement projecting the _id column and
// returns the matched ids in query order.
func (s *Store) SelectIDs(ctx context.Context, query string, args []any) ([]string, error) {
	db, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s.logger.Debug("executing index query", "sql", query, "args", args)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		ids = append(ids, id.String)
	}
	return ids, rows.Err()
}

// Batch runs fn inside a single transaction, committing on success. A
// collection's reconciliation uses one batch so it commits as its own unit
// of work, independent of other collections.
func (s *Store) Batch(ctx context.Context, fn func(b *Batch) error) error {
	db, err := s.Open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	if err := fn(&Batch{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Batch exposes transaction-scoped index operations to a Store.Batch
// callback.
type Batch struct {
	ctx context.Context
	tx  *sql.Tx
}

// LookupHash is the transactional form of Store.LookupHash.
func (b *Batch) LookupHash(table, id string) (hash string, ok bool, err error) {
	return lookupHash(b.ctx, b.tx, table, id)
}

// UpsertRow is the transactional form of Store.UpsertRow.
func (b *Batch) UpsertRow(table, id string, fields []string, values []any, hash string) error {
	return upsertRowTx(b.ctx, b.tx, table, id, fields, values, hash)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func lookupHash(ctx context.Context, q querier, table, id string) (string, bool, error) {
	stmt := fmt.Sprintf("select %s from %s where _id = ?", quoteIdent(HashColumn), quoteIdent(table))
	var hash sql.NullString
	err := q.QueryRowContext(ctx, stmt, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up hash for %s/%s: %w", table, id, err)
	}
	return hash.String, true, nil
}

func upsertRowTx(ctx context.Context, e execer, table, id string, fields []string, values []any, hash string) error {
	if len(fields) != len(values) {
		return fmt.Errorf("field/value count mismatch: %d != %d", len(fields), len(values))
	}

	del := fmt.Sprintf("delete from %s where _id = ?", quoteIdent(table))
	if _, err := e.ExecContext(ctx, del, id); err != nil {
		return fmt.Errorf("failed to clear index row %s/%s: %w", table, id, err)
	}

	columns := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		columns = append(columns, quoteIdent(field))
	}
	columns = append(columns, quoteIdent(HashColumn))

	args := make([]any, 0, len(values)+1)
	args = append(args, values...)
	args = append(args, hash)

	ins := fmt.Sprintf("insert into %s (%s) values (%s)",
		quoteIdent(table),
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", "))
	if _, err := e.ExecContext(ctx, ins, args...); err != nil {
		return fmt.Errorf("failed to insert index row %s/%s: %w", table, id, err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
