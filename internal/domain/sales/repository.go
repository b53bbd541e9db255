package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale header persistence
type SaleRepository interface {
	// FindByID returns shared.ErrNotFound for unknown or soft-deleted sales
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// Save creates or updates a sale header
	Save(ctx context.Context, sale *Sale) error

	// AdjustTotal adds delta to total_amount of a live sale in a single
	// statement. Deleted sales report shared.ErrNotFound.
	AdjustTotal(ctx context.Context, id uuid.UUID, delta int64) error

	// SoftDelete sets deleted_at on a live sale and touches no other column.
	// Returns shared.ErrNotFound when the sale is unknown or already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error

	// Restore clears deleted_at. Used to undo SoftDelete outside a transaction.
	Restore(ctx context.Context, id uuid.UUID) error
}

// SaleItemRepository defines the interface for sale item persistence
type SaleItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SaleItem, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error)
	Create(ctx context.Context, item *SaleItem) error
	Update(ctx context.Context, item *SaleItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SaleItemBatchRepository defines the interface for allocation records
type SaleItemBatchRepository interface {
	// FindBySaleItem returns the rows of one item in creation order
	FindBySaleItem(ctx context.Context, saleItemID uuid.UUID) ([]SaleItemBatch, error)

	// CreateBatch inserts rows as given, keeping their ids and timestamps
	CreateBatch(ctx context.Context, rows []SaleItemBatch) error

	// DeleteBySaleItem removes every row of one item
	DeleteBySaleItem(ctx context.Context, saleItemID uuid.UUID) error
}
