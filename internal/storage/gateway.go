// Package storage is the relational gateway every repository runs on. It
// opens SQLite or Postgres, applies the embedded migrations and runs caller
// functions inside transactions.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect names the SQL flavor behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Querier executes statements inside one unit of work. Statements are
// written with ? placeholders; the gateway rebinds them for the dialect.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
}

// Gateway runs functions against the store. Update wraps fn in a
// transaction that commits only if fn returns nil. View runs fn for reads;
// whether it gets a snapshot depends on configuration.
type Gateway interface {
	View(ctx context.Context, fn func(Querier) error) error
	Update(ctx context.Context, fn func(Querier) error) error
}

var _ Gateway = (*DB)(nil)

// DB is the Gateway over a database/sql handle.
type DB struct {
	db        *sql.DB
	dialect   Dialect
	snapshots bool
}

// New wraps an open handle. Callers normally use Open, which also migrates.
func New(db *sql.DB, dialect Dialect, snapshotReads bool) *DB {
	return &DB{db: db, dialect: dialect, snapshots: snapshotReads}
}

// Dialect reports the SQL flavor of the store.
func (d *DB) Dialect() Dialect { return d.dialect }

// SQL returns the underlying handle.
func (d *DB) SQL() *sql.DB { return d.db }

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// View runs fn for a read. With snapshot reads enabled fn runs in a
// read-only transaction, otherwise each statement sees the latest commit.
func (d *DB) View(ctx context.Context, fn func(Querier) error) error {
	if !d.snapshots {
		return classify(fn(&querier{conn: d.db, dialect: d.dialect}))
	}

	// SQLite has no read-only transaction mode; a plain one still gives a
	// consistent view.
	var opts *sql.TxOptions
	if d.dialect == DialectPostgres {
		opts = &sql.TxOptions{ReadOnly: true}
	}
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("beginning read transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&querier{conn: tx, dialect: d.dialect}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

// Update runs fn in a read-write transaction. Any error from fn rolls the
// whole transaction back; nothing fn wrote is visible afterwards.
func (d *DB) Update(ctx context.Context, fn func(Querier) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&querier{conn: tx, dialect: d.dialect}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type querier struct {
	conn    conn
	dialect Dialect
}

func (q *querier) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.conn.ExecContext(ctx, rebind(q.dialect, query), args...)
}

func (q *querier) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.conn.QueryContext(ctx, rebind(q.dialect, query), args...)
}

func (q *querier) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.conn.QueryRowContext(ctx, rebind(q.dialect, query), args...)
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres. Statements
// in this module never carry a literal question mark.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Exists reports whether query returns at least one row.
func Exists(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Placeholders returns n comma-separated ? markers for an IN list.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Args converts ids to a variadic argument list.
func Args(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// Missing returns the ids, in input order, that have no row in table. The
// table name is a trusted constant, never caller input.
func Missing(ctx context.Context, q Querier, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.Query(ctx,
		"SELECT id FROM "+table+" WHERE id IN ("+Placeholders(len(ids))+")",
		Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
