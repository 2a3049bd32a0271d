// Package storagetest opens throwaway databases and inserts reference rows
// for repository tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Open returns a migrated SQLite gateway in a fresh temp directory. It is
// closed when the test ends.
func Open(t *testing.T) *storage.DB {
	t.Helper()
	return OpenConfig(t, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
}

// OpenConfig opens the backend described by cfg and closes it on cleanup.
func OpenConfig(t *testing.T, cfg types.Config) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), cfg)
	require.NoError(t, err, "opening storage")
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs a raw statement outside any repository.
func Exec(t *testing.T, db storage.Gateway, query string, args ...any) {
	t.Helper()
	err := db.Update(context.Background(), func(q storage.Querier) error {
		_, err := q.Exec(context.Background(), query, args...)
		return err
	})
	require.NoError(t, err, "exec %q", query)
}

// Count returns the single integer selected by query.
func Count(t *testing.T, db storage.Gateway, query string, args ...any) int {
	t.Helper()
	var n int
	err := db.View(context.Background(), func(q storage.Querier) error {
		return q.QueryRow(context.Background(), query, args...).Scan(&n)
	})
	require.NoError(t, err, "count %q", query)
	return n
}

// User inserts a user with a placeholder password hash and returns its id.
func User(t *testing.T, db storage.Gateway, nickname string) string {
	t.Helper()
	id := types.NewID()
	Exec(t, db,
		"INSERT INTO users (id, nickname, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		id, nickname, nickname+"@example.com", "x", time.Now().UnixMilli())
	return id
}

// Trait inserts a trait and returns its id.
func Trait(t *testing.T, db storage.Gateway, name string) string {
	t.Helper()
	id := types.NewID()
	Exec(t, db, "INSERT INTO traits (id, name, description) VALUES (?, ?, ?)", id, name, name+" description")
	return id
}

// Proficiency inserts a proficiency and returns its id.
func Proficiency(t *testing.T, db storage.Gateway, name, kind string) string {
	t.Helper()
	id := types.NewID()
	Exec(t, db, "INSERT INTO proficiencies (id, name, type) VALUES (?, ?, ?)", id, name, kind)
	return id
}

// Property inserts an item property and returns its id.
func Property(t *testing.T, db storage.Gateway, name string) string {
	t.Helper()
	id := types.NewID()
	Exec(t, db, "INSERT INTO properties (id, name, description) VALUES (?, ?, ?)", id, name, name+" description")
	return id
}

// Gear inserts an Adventuring Gear item with its detail row and returns its
// id.
func Gear(t *testing.T, db storage.Gateway, name string) string {
	t.Helper()
	id := types.NewID()
	Exec(t, db,
		"INSERT INTO items (id, name, description, cost_gp, type, weight_lbs) VALUES (?, ?, '', 1, ?, 1)",
		id, name, string(types.ItemAdventuringGear))
	Exec(t, db, "INSERT INTO items_adventuring_gear (item_id, category) VALUES (?, 'Standard Gear')", id)
	return id
}
