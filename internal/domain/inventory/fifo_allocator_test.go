package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBatch(variantID uuid.UUID, remaining, cost int64, receivedAt time.Time) StockBatch {
	return StockBatch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductVariantID:  variantID,
		QuantityReceived:  remaining,
		QuantityRemaining: remaining,
		BuyPricePerUnit:   cost,
		ReceivedAt:        receivedAt,
	}
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func TestFIFOAllocator(t *testing.T) {
	allocator := NewFIFOAllocator()
	variantID := uuid.New()

	t.Run("Strategy metadata is correct", func(t *testing.T) {
		assert.Equal(t, "fifo", allocator.Name())
		assert.Equal(t, "allocation", allocator.Type().String())
		assert.NotEmpty(t, allocator.Description())
	})

	t.Run("Consumes oldest batch first", func(t *testing.T) {
		b1 := createTestBatch(variantID, 3, 10, date(time.January, 1))
		b2 := createTestBatch(variantID, 5, 12, date(time.January, 5))

		// Input order must not matter
		result, err := allocator.Allocate(variantID, 6, []StockBatch{b2, b1})
		require.NoError(t, err)

		require.Len(t, result.Lines, 2)
		assert.Equal(t, b1.ID, result.Lines[0].BatchID)
		assert.Equal(t, int64(3), result.Lines[0].Quantity)
		assert.Equal(t, int64(10), result.Lines[0].UnitCost)
		assert.True(t, result.Lines[0].Exhausted)
		assert.Equal(t, int64(0), result.Lines[0].RemainingAfter)

		assert.Equal(t, b2.ID, result.Lines[1].BatchID)
		assert.Equal(t, int64(3), result.Lines[1].Quantity)
		assert.Equal(t, int64(12), result.Lines[1].UnitCost)
		assert.False(t, result.Lines[1].Exhausted)
		assert.Equal(t, int64(2), result.Lines[1].RemainingAfter)

		assert.Equal(t, []uuid.UUID{b1.ID}, result.ExhaustedBatchIDs)
		assert.Equal(t, int64(6), result.TotalQuantity())
		assert.Equal(t, int64(66), result.TotalCost())
	})

	t.Run("Stops once the need is met", func(t *testing.T) {
		b1 := createTestBatch(variantID, 10, 10, date(time.January, 1))
		b2 := createTestBatch(variantID, 10, 12, date(time.January, 2))

		result, err := allocator.Allocate(variantID, 4, []StockBatch{b1, b2})
		require.NoError(t, err)
		require.Len(t, result.Lines, 1)
		assert.Equal(t, b1.ID, result.Lines[0].BatchID)
		assert.Empty(t, result.ExhaustedBatchIDs)
	})

	t.Run("Exact total exhausts every batch", func(t *testing.T) {
		b1 := createTestBatch(variantID, 3, 10, date(time.January, 1))
		b2 := createTestBatch(variantID, 5, 12, date(time.January, 5))

		result, err := allocator.Allocate(variantID, 8, []StockBatch{b1, b2})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b1.ID, b2.ID}, result.ExhaustedBatchIDs)
	})

	t.Run("Ties on received_at break by creation time", func(t *testing.T) {
		same := date(time.March, 1)
		older := createTestBatch(variantID, 2, 7, same)
		older.CreatedAt = same.Add(time.Hour)
		newer := createTestBatch(variantID, 2, 9, same)
		newer.CreatedAt = same.Add(2 * time.Hour)

		result, err := allocator.Allocate(variantID, 3, []StockBatch{newer, older})
		require.NoError(t, err)
		assert.Equal(t, older.ID, result.Lines[0].BatchID)
		assert.Equal(t, newer.ID, result.Lines[1].BatchID)
	})

	t.Run("Full ties break by id", func(t *testing.T) {
		same := date(time.March, 1)
		a := createTestBatch(variantID, 1, 1, same)
		b := createTestBatch(variantID, 1, 1, same)
		a.CreatedAt, b.CreatedAt = same, same
		a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

		result, err := allocator.Allocate(variantID, 1, []StockBatch{b, a})
		require.NoError(t, err)
		assert.Equal(t, a.ID, result.Lines[0].BatchID)
	})

	t.Run("Insufficient stock is all-or-nothing", func(t *testing.T) {
		b1 := createTestBatch(variantID, 3, 10, date(time.January, 1))
		b2 := createTestBatch(variantID, 5, 12, date(time.January, 5))
		snapshot := []StockBatch{b1, b2}

		result, err := allocator.Allocate(variantID, 20, snapshot)
		assert.Nil(t, result)

		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, int64(8), stockErr.Available)
		assert.Equal(t, int64(20), stockErr.Requested)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, CodeInsufficientStock, domainErr.Code)

		// The snapshot is untouched
		assert.Equal(t, int64(3), snapshot[0].QuantityRemaining)
		assert.Equal(t, int64(5), snapshot[1].QuantityRemaining)
	})

	t.Run("No eligible batches", func(t *testing.T) {
		_, err := allocator.Allocate(variantID, 1, nil)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, CodeNoStockAvailable, domainErr.Code)
	})

	t.Run("Ignores deleted, empty and foreign batches", func(t *testing.T) {
		deletedAt := date(time.February, 1)
		deleted := createTestBatch(variantID, 5, 1, date(time.January, 1))
		deleted.DeletedAt = &deletedAt
		empty := createTestBatch(variantID, 5, 1, date(time.January, 1))
		empty.QuantityRemaining = 0
		foreign := createTestBatch(uuid.New(), 5, 1, date(time.January, 1))
		good := createTestBatch(variantID, 5, 4, date(time.June, 1))

		result, err := allocator.Allocate(variantID, 2, []StockBatch{deleted, empty, foreign, good})
		require.NoError(t, err)
		require.Len(t, result.Lines, 1)
		assert.Equal(t, good.ID, result.Lines[0].BatchID)

		_, err = allocator.Allocate(variantID, 1, []StockBatch{deleted, empty, foreign})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, CodeNoStockAvailable, domainErr.Code)
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		b1 := createTestBatch(variantID, 3, 10, date(time.January, 1))
		for _, qty := range []int64{0, -1} {
			_, err := allocator.Allocate(variantID, qty, []StockBatch{b1})
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, CodeInvalidQuantity, domainErr.Code)
		}
	})

	t.Run("Conserves quantity", func(t *testing.T) {
		batches := make([]StockBatch, 0, 6)
		var before int64
		for i := 0; i < 6; i++ {
			b := createTestBatch(variantID, int64(i+1), int64(10+i), date(time.January, i+1))
			before += b.QuantityRemaining
			batches = append(batches, b)
		}

		for need := int64(1); need <= before; need++ {
			result, err := allocator.Allocate(variantID, need, batches)
			require.NoError(t, err)
			assert.Equal(t, need, result.TotalQuantity())

			var after int64
			for _, l := range result.Lines {
				after += l.RemainingAfter
			}
			// untouched batches keep their quantity
			for _, b := range batches[len(result.Lines):] {
				after += b.QuantityRemaining
			}
			assert.Equal(t, before-need, after)
		}
	})
}
