package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/mesh-intelligence/dndb/pkg/types"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "dndb.db"

// sqlitePragmas turns on foreign keys (cascades depend on them), waits on
// a locked database instead of failing at once, and takes the write lock
// when a transaction begins.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

const pingTimeout = 5 * time.Second

// Open connects to the backend named in cfg, pings it and applies any
// pending migrations. Migrations run on a handle of their own that is closed
// once they finish.
func Open(ctx context.Context, cfg types.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	mdb, dialect, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(mdb, dialect); err != nil {
		return nil, err
	}

	db, _, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, dialect, cfg.SnapshotReads), nil
}

// connect opens and pings the backend named in cfg.
func connect(ctx context.Context, cfg types.Config) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch cfg.Backend {
	case types.BackendSQLite:
		db, err = openSQLite(cfg.DataDir)
		dialect = DialectSQLite
	case types.BackendPostgres:
		db, err = openPostgres(cfg.DSN)
		dialect = DialectPostgres
	default:
		return nil, "", types.ErrBackendUnknown
	}
	if err != nil {
		return nil, "", err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("pinging %s: %w", dialect, err)
	}
	return db, dialect, nil
}

func openSQLite(dataDir string) (*sql.DB, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	dsn := "file:" + filepath.Join(dataDir, DatabaseFile) + "?" + sqlitePragmas
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
