package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDatabase opens a private in-memory SQLite database with the ledger schema
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockDB returns a postgres-dialect GORM handle backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedVariant(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	v := &catalog.ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  uuid.New(),
		SKU:        "SKU-" + uuid.NewString()[:8],
		Name:       "Test variant",
	}
	require.NoError(t, NewGormProductVariantRepository(db).Save(context.Background(), v))
	return v.ID
}

func seedBatch(t *testing.T, db *gorm.DB, variantID uuid.UUID, qty, cost int64, receivedAt time.Time) *inventory.StockBatch {
	t.Helper()
	b, err := inventory.NewStockBatch(variantID, qty, cost, 0, 0, receivedAt, nil)
	require.NoError(t, err)
	require.NoError(t, NewGormStockBatchRepository(db).Save(context.Background(), b))
	return b
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}
