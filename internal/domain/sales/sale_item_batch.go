package sales

import (
	"time"

	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleItemBatch records that QuantityFromBatch units of a sale item were
// sourced from one stock batch. CostFromBatch is frozen at allocation time.
type SaleItemBatch struct {
	ID                uuid.UUID
	SaleItemID        uuid.UUID
	StockBatchID      uuid.UUID
	QuantityFromBatch int64
	CostFromBatch     int64
	CreatedAt         time.Time
}

// NewSaleItemBatches turns an allocation plan into junction rows, one per line.
func NewSaleItemBatches(saleItemID uuid.UUID, allocation *inventory.Allocation) []SaleItemBatch {
	now := shared.Now()
	rows := make([]SaleItemBatch, 0, len(allocation.Lines))
	for _, line := range allocation.Lines {
		rows = append(rows, SaleItemBatch{
			ID:                uuid.New(),
			SaleItemID:        saleItemID,
			StockBatchID:      line.BatchID,
			QuantityFromBatch: line.Quantity,
			CostFromBatch:     line.UnitCost,
			CreatedAt:         now,
		})
	}
	return rows
}

// TotalAllocated sums QuantityFromBatch
func TotalAllocated(rows []SaleItemBatch) int64 {
	var total int64
	for _, r := range rows {
		total += r.QuantityFromBatch
	}
	return total
}
