package inventory

import (
	"sort"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// AllocationLine records that Quantity units are taken from one batch at UnitCost.
type AllocationLine struct {
	BatchID        uuid.UUID
	Quantity       int64
	UnitCost       int64 // batch buy price at allocation time
	RemainingAfter int64
	Exhausted      bool
}

// LineCost returns Quantity * UnitCost
func (l AllocationLine) LineCost() int64 {
	return l.Quantity * l.UnitCost
}

// Allocation is the plan produced for one (variant, quantity) request.
// Lines are in consumption order.
type Allocation struct {
	VariantID         uuid.UUID
	Requested         int64
	Lines             []AllocationLine
	ExhaustedBatchIDs []uuid.UUID
}

// TotalQuantity returns the sum of allocated units
func (a *Allocation) TotalQuantity() int64 {
	var total int64
	for _, l := range a.Lines {
		total += l.Quantity
	}
	return total
}

// TotalCost returns the sum of Quantity * UnitCost across lines
func (a *Allocation) TotalCost() int64 {
	var total int64
	for _, l := range a.Lines {
		total += l.LineCost()
	}
	return total
}

// AllocationStrategy maps a request onto a snapshot of batches
type AllocationStrategy interface {
	strategy.Strategy
	Allocate(variantID uuid.UUID, quantityNeeded int64, batches []StockBatch) (*Allocation, error)
}

// FIFOAllocator consumes the oldest received batch first.
// It is pure: the input snapshot is never modified.
type FIFOAllocator struct {
	strategy.BaseStrategy
}

// NewFIFOAllocator creates a new FIFO allocator
func NewFIFOAllocator() *FIFOAllocator {
	return &FIFOAllocator{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo",
			strategy.StrategyTypeAllocation,
			"FIFO allocation - consumes oldest received batches first, ties broken by creation time then id",
		),
	}
}

// Allocate plans the consumption of quantityNeeded units of variantID.
//
// Fails with NO_STOCK_AVAILABLE when no batch is eligible and with
// *InsufficientStockError when the eligible total is short. Both checks run
// before any line is produced, so a failure never yields a partial plan.
func (s *FIFOAllocator) Allocate(variantID uuid.UUID, quantityNeeded int64, batches []StockBatch) (*Allocation, error) {
	if quantityNeeded <= 0 {
		return nil, shared.NewDomainError(CodeInvalidQuantity, "Requested quantity must be positive")
	}

	eligible := filterEligibleBatches(variantID, batches)
	if len(eligible) == 0 {
		return nil, NewNoStockAvailableError(variantID)
	}

	var available int64
	for i := range eligible {
		available += eligible[i].QuantityRemaining
	}
	if available < quantityNeeded {
		return nil, NewInsufficientStockError(variantID, available, quantityNeeded)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return fifoLess(&eligible[i], &eligible[j])
	})

	return calculateAllocation(variantID, quantityNeeded, eligible), nil
}

func calculateAllocation(variantID uuid.UUID, quantityNeeded int64, sorted []StockBatch) *Allocation {
	result := &Allocation{
		VariantID:         variantID,
		Requested:         quantityNeeded,
		Lines:             make([]AllocationLine, 0, len(sorted)),
		ExhaustedBatchIDs: make([]uuid.UUID, 0),
	}

	remaining := quantityNeeded
	for i := range sorted {
		if remaining == 0 {
			break
		}
		batch := &sorted[i]
		take := min(batch.QuantityRemaining, remaining)
		exhausted := take == batch.QuantityRemaining

		result.Lines = append(result.Lines, AllocationLine{
			BatchID:        batch.ID,
			Quantity:       take,
			UnitCost:       batch.BuyPricePerUnit,
			RemainingAfter: batch.QuantityRemaining - take,
			Exhausted:      exhausted,
		})
		if exhausted {
			result.ExhaustedBatchIDs = append(result.ExhaustedBatchIDs, batch.ID)
		}
		remaining -= take
	}
	return result
}

// filterEligibleBatches returns a copy of the batches that belong to the
// variant and can still supply stock.
func filterEligibleBatches(variantID uuid.UUID, batches []StockBatch) []StockBatch {
	result := make([]StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.ProductVariantID != variantID || !b.IsEligible() {
			continue
		}
		result = append(result, b)
	}
	return result
}

var _ AllocationStrategy = (*FIFOAllocator)(nil)
