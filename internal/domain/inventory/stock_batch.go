package inventory

import (
	"time"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockBatch is a dated receipt of physical stock for one product variant.
// QuantityRemaining is the only counter the ledger mutates; it always stays
// within [0, QuantityReceived].
type StockBatch struct {
	shared.BaseEntity
	ProductVariantID    uuid.UUID
	QuantityReceived    int64
	QuantityRemaining   int64
	BuyPricePerUnit     int64 // cost basis, minor currency units
	SellPricePerUnit    int64
	MinSalePricePerUnit int64
	ReceivedAt          time.Time // determines FIFO order
	SupplierID          *uuid.UUID
	DeletedAt           *time.Time
}

// NewStockBatch creates a new batch from an intake. Remaining starts equal to received.
func NewStockBatch(
	variantID uuid.UUID,
	quantity int64,
	buyPrice, sellPrice, minSalePrice int64,
	receivedAt time.Time,
	supplierID *uuid.UUID,
) (*StockBatch, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Product variant is required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	if buyPrice < 0 || sellPrice < 0 || minSalePrice < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	if receivedAt.IsZero() {
		receivedAt = shared.Now()
	}
	return &StockBatch{
		BaseEntity:          shared.NewBaseEntity(),
		ProductVariantID:    variantID,
		QuantityReceived:    quantity,
		QuantityRemaining:   quantity,
		BuyPricePerUnit:     buyPrice,
		SellPricePerUnit:    sellPrice,
		MinSalePricePerUnit: minSalePrice,
		ReceivedAt:          receivedAt.Truncate(time.Millisecond),
		SupplierID:          supplierID,
	}, nil
}

// IsDeleted returns true if the batch has been soft-deleted
func (b *StockBatch) IsDeleted() bool {
	return b.DeletedAt != nil
}

// IsEligible returns true if the batch may supply new allocations
func (b *StockBatch) IsEligible() bool {
	return !b.IsDeleted() && b.QuantityRemaining > 0
}

// CanAdjust reports whether applying delta keeps the remaining counter in range.
func (b *StockBatch) CanAdjust(delta int64) bool {
	next := b.QuantityRemaining + delta
	return next >= 0 && next <= b.QuantityReceived
}

// TotalValue returns the cost value of the remaining stock
func (b *StockBatch) TotalValue() int64 {
	return b.QuantityRemaining * b.BuyPricePerUnit
}

// fifoLess orders batches oldest received first, then by creation time, then by id.
func fifoLess(a, b *StockBatch) bool {
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
