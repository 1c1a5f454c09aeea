//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// newPostgres starts a throwaway PostgreSQL, applies the embedded migrations
// and returns a connected Database.
func newPostgres(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.NewFromURL(dsn, migration.Source{FS: migrations.FS}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(3), version)
	require.NoError(t, m.Close())

	db, err := NewDatabase(ctx, &config.DatabaseConfig{URL: dsn, MaxOpenConns: 5, MaxIdleConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgres_Repositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	db := newPostgres(t)

	users := NewGormUserRepository(db.DB)
	products := NewGormProductRepository(db.DB)
	orders := NewGormOrderRepository(db.DB)

	user := newTestUser(t, "ada@example.com")
	require.NoError(t, users.Save(ctx, user))

	t.Run("unique email maps to already exists", func(t *testing.T) {
		err := users.Save(ctx, newTestUser(t, "ada@example.com"))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("numeric price survives round trip", func(t *testing.T) {
		p, err := catalog.NewProduct("Mango", "fruits", "", "199.99", "")
		require.NoError(t, err)
		require.NoError(t, products.Save(ctx, p))

		found, err := products.FindByIDs(ctx, []uuid.UUID{p.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "199.99", found[0].PriceString())
	})

	t.Run("order lifecycle with jsonb items", func(t *testing.T) {
		order := newTestOrder(t, &user.ID, "order_pg_1")
		require.NoError(t, orders.Save(ctx, order))

		require.NoError(t, order.MarkPaid("pay_pg_1", "sig", time.Now()))
		require.NoError(t, orders.Update(ctx, order))

		found, err := orders.FindByGatewayOrderID(ctx, "order_pg_1")
		require.NoError(t, err)
		assert.Equal(t, checkout.OrderStatusPaid, found.Status)
		require.Len(t, found.Items, 1)
		assert.Equal(t, int64(2), found.Items[0].Qty)

		list, err := orders.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, db.Ping(ctx))
	})
}
