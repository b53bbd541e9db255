package inventory

import (
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// CostStrategy derives the recorded unit cost of a sale line from its allocation
type CostStrategy interface {
	strategy.Strategy
	UnitCost(lines []AllocationLine, quantitySold int64) (int64, error)
}

// WeightedAverageCostAccountant blends batch costs by quantity.
type WeightedAverageCostAccountant struct {
	strategy.BaseStrategy
}

// NewWeightedAverageCostAccountant creates a new weighted average cost accountant
func NewWeightedAverageCostAccountant() *WeightedAverageCostAccountant {
	return &WeightedAverageCostAccountant{
		BaseStrategy: strategy.NewBaseStrategy(
			"weighted_average",
			strategy.StrategyTypeCost,
			"Weighted average cost - sum(quantity x cost) / quantity sold, rounded half up",
		),
	}
}

// UnitCost implements CostStrategy
func (a *WeightedAverageCostAccountant) UnitCost(lines []AllocationLine, quantitySold int64) (int64, error) {
	return WeightedAverageCost(lines, quantitySold)
}

// WeightedAverageCost returns round(sum(qty*cost) / quantitySold), halves rounded up.
func WeightedAverageCost(lines []AllocationLine, quantitySold int64) (int64, error) {
	if quantitySold <= 0 {
		return 0, shared.NewDomainError(CodeInvalidQuantity, "Quantity sold must be positive")
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromInt(l.Quantity).Mul(decimal.NewFromInt(l.UnitCost)))
	}

	// Round(0) rounds half away from zero; costs are never negative.
	return total.Div(decimal.NewFromInt(quantitySold)).Round(0).IntPart(), nil
}

var _ CostStrategy = (*WeightedAverageCostAccountant)(nil)
