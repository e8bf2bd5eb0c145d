//go:build integration
// +build integration

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a PostgreSQL container and returns a migrated connection.
func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("warehouse"),
		postgres.WithUsername("warehouse"),
		postgres.WithPassword("warehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.ConnectDB(connStr, zap.NewNop(), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return db
}

func newPostgresFixture(t *testing.T, db *gorm.DB, mode config.FulfillmentMode, allowNegative bool) *fixture {
	f := &fixture{
		db:        db,
		products:  repository.NewProductRepo(db),
		orders:    repository.NewOrderRepo(db),
		movements: repository.NewStockMovementRepo(db),
		users:     repository.NewUserRepo(db),
		pub:       &recordingPublisher{},
	}
	log := zap.NewNop()
	f.ledger = NewStockLedger(db, f.products, f.movements, f.pub, allowNegative, log)
	f.orderSvc = NewOrderService(db, f.orders, f.ledger, f.pub, mode, log)
	f.productSvc = NewProductService(db, f.products, f.ledger, f.pub, log)
	return f
}

func TestIntegration_Fulfillment(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	t.Run("row lock prevents lost updates", func(t *testing.T) {
		f := newPostgresFixture(t, db, config.FulfillmentSequential, true)
		p := f.seedProduct(t, "PG-RACE", 1000)

		const workers = 50
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.ledger.AdjustStock(ctx, StockAdjustment{ProductRef: p.ID.String(), Delta: -3, Actor: alice})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1000-3*workers, f.quantity(t, p))
	})

	t.Run("negative stock guard holds under contention", func(t *testing.T) {
		f := newPostgresFixture(t, db, config.FulfillmentSequential, false)
		p := f.seedProduct(t, "PG-SCARCE", 10)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			rejected int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.ledger.AdjustStock(ctx, StockAdjustment{ProductRef: p.SKU, Delta: -3, Actor: alice})
				if err != nil {
					assert.ErrorIs(t, err, ErrInsufficientStock)
					mu.Lock()
					rejected++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, rejected)
		assert.Equal(t, 1, f.quantity(t, p))
	})

	t.Run("strict mode rolls back every line", func(t *testing.T) {
		f := newPostgresFixture(t, db, config.FulfillmentStrict, false)
		a := f.seedProduct(t, "PG-ROLL-A", 10)
		b := f.seedProduct(t, "PG-ROLL-B", 1)
		order := f.createOrder(t, "PG-ORD-ROLL", model.OrderOutbound, itemFor(a, 4), itemFor(b, 2))

		_, err := f.orderSvc.ProcessOrder(ctx, order.ID, "bob", alice)
		assert.ErrorIs(t, err, ErrInsufficientStock)

		assert.Equal(t, 10, f.quantity(t, a))
		assert.Equal(t, 1, f.quantity(t, b))
		stored, err := f.orderSvc.GetOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, stored.Status)
	})

	t.Run("unique violations surface as conflicts", func(t *testing.T) {
		f := newPostgresFixture(t, db, config.FulfillmentSequential, true)
		f.seedProduct(t, "PG-UNIQ", 1)

		err := f.products.Create(db, &model.Product{SKU: "PG-UNIQ", Name: "dup", Category: "c", Unit: "pcs"})
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}
