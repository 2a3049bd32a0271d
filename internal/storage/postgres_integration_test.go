//go:build integration

package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/internal/storage/storagetest"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func TestPostgresGateway(t *testing.T) {
	ctx := context.Background()
	dsn := storagetest.Postgres(t)

	db := storagetest.OpenConfig(t, types.Config{Backend: types.BackendPostgres, DSN: dsn})
	assert.Equal(t, storage.DialectPostgres, db.Dialect())

	owner := storagetest.User(t, db, "dm")
	assert.Equal(t, 1, storagetest.Count(t, db, "SELECT COUNT(*) FROM users WHERE id = ?", owner))

	err := db.Update(ctx, func(q storage.Querier) error {
		_, err := q.Exec(ctx,
			"INSERT INTO users (id, nickname, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
			types.NewID(), "dm", "other@example.com", "x", 0)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	// A second Open against the same database finds nothing to migrate.
	again, err := storage.Open(ctx, types.Config{Backend: types.BackendPostgres, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

