//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDatabase starts a PostgreSQL container and applies the embedded migrations
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("inventory_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("ledger123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	pool, err := db.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = pool.Close() })

	return &Database{DB: db, driver: "postgres"}
}

// Without a process-level lock the guarded UPDATE and the FOR UPDATE row
// locks alone must keep concurrent sellers from overselling.
func TestPostgres_ConcurrentSalesNeverOversell(t *testing.T) {
	db := newPostgresDatabase(t)
	ctx := context.Background()

	variant := seedVariant(t, db.DB)
	b1 := seedBatch(t, db.DB, variant, 3, 10, day(1))
	b2 := seedBatch(t, db.DB, variant, 5, 12, day(5))
	sale := seedSale(t, NewGormSaleRepository(db.DB))

	ledger := appsales.NewSaleItemLedger(NewGormTransactionScope(db.DB), nil, zaptest.NewLogger(t))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.CreateSaleItem(ctx, appsales.CreateSaleItemInput{
				SaleID: sale.ID, VariantID: variant, QuantitySold: 1, PriceAtSale: 100,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			var de *shared.DomainError
			if !errors.As(err, &de) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), succeeded)
	repo := NewGormStockBatchRepository(db.DB)
	for _, id := range []any{b1.ID, b2.ID} {
		var remaining int64
		require.NoError(t, db.DB.Table("stock_batches").Select("quantity_remaining").Where("id = ?", id).Scan(&remaining).Error)
		assert.Zero(t, remaining)
	}

	err := repo.AdjustRemaining(ctx, b1.ID, -1)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, inventory.CodeBatchQuantityConflict, de.Code)

	s, err := NewGormSaleRepository(db.DB).FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, succeeded*100, s.TotalAmount)
}
