package inventory

import (
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeStockBatch is the aggregate type for batch events
const AggregateTypeStockBatch = "StockBatch"

// Event type constants
const (
	EventTypeStockBatchReceived  = "StockBatchReceived"
	EventTypeStockBatchExhausted = "StockBatchExhausted"
)

// StockBatchExhaustedEvent is raised when an allocation takes the last units of a batch.
// It is advisory: consumers use it to prompt restocking.
type StockBatchExhaustedEvent struct {
	shared.BaseDomainEvent
	BatchID          uuid.UUID `json:"batch_id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	SaleItemID       uuid.UUID `json:"sale_item_id"`
}

// NewStockBatchExhaustedEvent creates a new StockBatchExhaustedEvent
func NewStockBatchExhaustedEvent(batchID, variantID, saleItemID uuid.UUID) *StockBatchExhaustedEvent {
	return &StockBatchExhaustedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockBatchExhausted, AggregateTypeStockBatch, batchID),
		BatchID:          batchID,
		ProductVariantID: variantID,
		SaleItemID:       saleItemID,
	}
}

// StockBatchReceivedEvent is raised on stock intake
type StockBatchReceivedEvent struct {
	shared.BaseDomainEvent
	BatchID          uuid.UUID `json:"batch_id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	Quantity         int64     `json:"quantity"`
	BuyPricePerUnit  int64     `json:"buy_price_per_unit"`
}

// NewStockBatchReceivedEvent creates a new StockBatchReceivedEvent
func NewStockBatchReceivedEvent(batch *StockBatch) *StockBatchReceivedEvent {
	return &StockBatchReceivedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockBatchReceived, AggregateTypeStockBatch, batch.ID),
		BatchID:          batch.ID,
		ProductVariantID: batch.ProductVariantID,
		Quantity:         batch.QuantityReceived,
		BuyPricePerUnit:  batch.BuyPricePerUnit,
	}
}
