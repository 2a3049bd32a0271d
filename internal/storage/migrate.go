package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate applies every pending up migration for dialect. It is safe to call
// on an already migrated database. Migrate takes ownership of db: the
// migration driver holds a dedicated connection on it and closing the
// migrator closes db, so callers pass a handle of its own.
func Migrate(db *sql.DB, dialect Dialect) (err error) {
	src, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("loading %s migrations: %w", dialect, err)
	}

	var driver database.Driver
	switch dialect {
	case DialectSQLite:
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	case DialectPostgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		err = fmt.Errorf("unknown dialect %q", dialect)
	}
	if err != nil {
		_ = src.Close()
		_ = db.Close()
		return fmt.Errorf("preparing %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("preparing migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if cerr := errors.Join(srcErr, dbErr); cerr != nil && err == nil {
			err = fmt.Errorf("closing migrator: %w", cerr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
