package persistence

import (
	"context"

	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares one database transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Atomic reports true: a failed Execute leaves no writes behind.
func (s *GormTransactionScope) Atomic() bool { return true }

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleItems() sales.SaleItemRepository {
	return NewGormSaleItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleItemBatches() sales.SaleItemBatchRepository {
	return NewGormSaleItemBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockBatches() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) Variants() catalog.ProductVariantRepository {
	return NewGormProductVariantRepository(r.tx)
}

var (
	_ appsales.TransactionScope          = (*GormTransactionScope)(nil)
	_ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
