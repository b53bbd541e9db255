package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedAverageCost(t *testing.T) {
	tests := []struct {
		name     string
		lines    []AllocationLine
		quantity int64
		expected int64
	}{
		{
			name:     "two batches blend to 11",
			lines:    []AllocationLine{{Quantity: 3, UnitCost: 10}, {Quantity: 3, UnitCost: 12}},
			quantity: 6,
			expected: 11,
		},
		{
			name:     "single batch keeps its cost",
			lines:    []AllocationLine{{Quantity: 4, UnitCost: 250}},
			quantity: 4,
			expected: 250,
		},
		{
			name:     "exact half rounds up",
			lines:    []AllocationLine{{Quantity: 1, UnitCost: 10}, {Quantity: 1, UnitCost: 11}},
			quantity: 2,
			expected: 11,
		},
		{
			name:     "below half rounds down",
			lines:    []AllocationLine{{Quantity: 2, UnitCost: 10}, {Quantity: 1, UnitCost: 11}},
			quantity: 3,
			expected: 10,
		},
		{
			name:     "above half rounds up",
			lines:    []AllocationLine{{Quantity: 1, UnitCost: 10}, {Quantity: 2, UnitCost: 11}},
			quantity: 3,
			expected: 11,
		},
		{
			name:     "zero cost batches",
			lines:    []AllocationLine{{Quantity: 5, UnitCost: 0}},
			quantity: 5,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := WeightedAverageCost(tt.lines, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}

	t.Run("Rejects zero quantity", func(t *testing.T) {
		_, err := WeightedAverageCost([]AllocationLine{{Quantity: 1, UnitCost: 1}}, 0)
		assert.Error(t, err)
	})
}

func TestWeightedAverageCostAccountant(t *testing.T) {
	accountant := NewWeightedAverageCostAccountant()
	assert.Equal(t, "weighted_average", accountant.Name())
	assert.Equal(t, "cost", accountant.Type().String())

	t.Run("Prices the FIFO allocation", func(t *testing.T) {
		variantID := uuid.New()
		b1 := createTestBatch(variantID, 3, 10, date(1, 1))
		b2 := createTestBatch(variantID, 5, 12, date(1, 5))

		alloc, err := NewFIFOAllocator().Allocate(variantID, 6, []StockBatch{b1, b2})
		require.NoError(t, err)

		cost, err := accountant.UnitCost(alloc.Lines, 6)
		require.NoError(t, err)
		assert.Equal(t, int64(11), cost)
	})
}
