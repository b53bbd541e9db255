package inventory

import (
	"context"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockBatchRepository defines the interface for stock batch persistence
type StockBatchRepository interface {
	// FindByID finds a batch by ID, including soft-deleted batches
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)

	// ListEligible returns the variant's batches that are not soft-deleted and
	// have remaining stock, ordered by received_at, created_at, id ascending
	ListEligible(ctx context.Context, variantID uuid.UUID) ([]StockBatch, error)

	// FindByVariant lists a variant's batches in FIFO order
	FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]StockBatch, error)

	// AdjustRemaining adds delta to quantity_remaining as a single guarded update.
	// It fails with BATCH_QUANTITY_CONFLICT if the result would leave
	// [0, quantity_received], and with BATCH_NOT_FOUND for unknown ids.
	AdjustRemaining(ctx context.Context, batchID uuid.UUID, delta int64) error

	// Save creates or updates a batch
	Save(ctx context.Context, batch *StockBatch) error
}
