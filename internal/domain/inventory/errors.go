package inventory

import (
	"fmt"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Error codes raised by the allocation engine
const (
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeNoStockAvailable      = "NO_STOCK_AVAILABLE"
	CodeInvalidQuantity       = "INVALID_QUANTITY"
	CodeBatchQuantityConflict = "BATCH_QUANTITY_CONFLICT"
	CodeBatchNotFound         = "BATCH_NOT_FOUND"
)

// InsufficientStockError is returned when the eligible batches of a variant
// cannot cover the requested quantity. No allocation is made.
type InsufficientStockError struct {
	VariantID uuid.UUID
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// Unwrap exposes the error as a DomainError so handlers can map it by code.
func (e *InsufficientStockError) Unwrap() error {
	return shared.NewDomainError(CodeInsufficientStock, e.Error())
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(variantID uuid.UUID, available, requested int64) *InsufficientStockError {
	return &InsufficientStockError{VariantID: variantID, Available: available, Requested: requested}
}

// NewNoStockAvailableError is returned when a variant has no eligible batch at all
func NewNoStockAvailableError(variantID uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeNoStockAvailable, "No stock available for variant %s", variantID)
}

// NewBatchQuantityConflictError is returned when a remaining-quantity adjustment
// would leave the batch outside [0, received]. Under concurrent writers this
// means another request consumed the stock first.
func NewBatchQuantityConflictError(batchID uuid.UUID, remaining, delta int64) *shared.DomainError {
	return shared.NewDomainErrorf(CodeBatchQuantityConflict,
		"Batch %s cannot be adjusted by %d (remaining %d)", batchID, delta, remaining)
}

// ErrBatchNotFound is returned when an adjustment targets an unknown batch
var ErrBatchNotFound = shared.NewDomainError(CodeBatchNotFound, "Stock batch not found")
