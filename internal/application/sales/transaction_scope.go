package sales

import (
	"context"

	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/sales"
)

// TransactionScope runs ledger work against one unit of storage.
//
// Atomic reports whether Execute provides real all-or-nothing semantics.
// When it does not, the ledger undoes partial writes itself through its
// compensation log.
type TransactionScope interface {
	// Execute runs fn. If fn returns an error an atomic scope rolls back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
	Atomic() bool
}

// TransactionalRepositories exposes the repositories the ledger touches.
// All of them share the scope's underlying transaction.
type TransactionalRepositories interface {
	Sales() sales.SaleRepository
	SaleItems() sales.SaleItemRepository
	SaleItemBatches() sales.SaleItemBatchRepository
	StockBatches() inventory.StockBatchRepository
	Variants() catalog.ProductVariantRepository
}

// NoOpTransactionScope runs fn directly against plain repositories.
// Useful for tests and for stores without multi-statement transactions.
type NoOpTransactionScope struct {
	saleRepo      sales.SaleRepository
	itemRepo      sales.SaleItemRepository
	itemBatchRepo sales.SaleItemBatchRepository
	batchRepo     inventory.StockBatchRepository
	variantRepo   catalog.ProductVariantRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	saleRepo sales.SaleRepository,
	itemRepo sales.SaleItemRepository,
	itemBatchRepo sales.SaleItemBatchRepository,
	batchRepo inventory.StockBatchRepository,
	variantRepo catalog.ProductVariantRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		saleRepo:      saleRepo,
		itemRepo:      itemRepo,
		itemBatchRepo: itemBatchRepo,
		batchRepo:     batchRepo,
		variantRepo:   variantRepo,
	}
}

// Execute runs the function without a transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Atomic is false: partial writes survive a failing fn.
func (s *NoOpTransactionScope) Atomic() bool { return false }

func (s *NoOpTransactionScope) Sales() sales.SaleRepository                    { return s.saleRepo }
func (s *NoOpTransactionScope) SaleItems() sales.SaleItemRepository            { return s.itemRepo }
func (s *NoOpTransactionScope) SaleItemBatches() sales.SaleItemBatchRepository { return s.itemBatchRepo }
func (s *NoOpTransactionScope) StockBatches() inventory.StockBatchRepository   { return s.batchRepo }
func (s *NoOpTransactionScope) Variants() catalog.ProductVariantRepository     { return s.variantRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
