package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the server image used by integration tests.
const PostgresImage = "postgres:16-alpine"

// Postgres starts a throwaway Postgres container and returns its DSN. The
// container is terminated when the test ends. Docker must be available.
func Postgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("dndb"),
		postgres.WithUsername("dndb"),
		postgres.WithPassword("dndb"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "starting postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}
