package session

import (
	"context"
	"testing"
	"time"

	"robohub/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupPostgres(t *testing.T) *database.Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15",
		postgres.WithDatabase("robohub"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	svc, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	require.NoError(t, database.RunMigrations(svc.DB(), zap.NewNop()))
	return svc
}

func TestPostgresTokenStore(t *testing.T) {
	svc := setupPostgres(t)

	exerciseTokenStore(t, NewPostgresTokenStore(svc.DB(), "default"))

	t.Run("keys are independent", func(t *testing.T) {
		ctx := context.Background()
		work := NewPostgresTokenStore(svc.DB(), "work")
		home := NewPostgresTokenStore(svc.DB(), "home")

		require.NoError(t, work.Save(ctx, "work-token", time.Time{}))
		_, err := home.Load(ctx)
		assert.ErrorIs(t, err, ErrNoToken)

		token, err := work.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "work-token", token)
	})

	t.Run("expired rows are dropped on load", func(t *testing.T) {
		ctx := context.Background()
		store := NewPostgresTokenStore(svc.DB(), "stale")

		require.NoError(t, store.Save(ctx, "old", time.Now().Add(-time.Minute)))
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, ErrNoToken)

		var count int
		require.NoError(t, svc.DB().QueryRow(`SELECT COUNT(*) FROM session_tokens WHERE session_key = 'stale'`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("health reports up", func(t *testing.T) {
		assert.Equal(t, "up", svc.Health(context.Background())["status"])
	})
}
