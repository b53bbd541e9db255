package persistence

import (
	"context"
	"errors"

	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fifoOrder = "received_at ASC, created_at ASC, id ASC"

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindByID finds a stock batch by its ID, soft-deleted or not
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrBatchNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListEligible returns the variant's live batches with stock, oldest first.
// On PostgreSQL the rows are locked FOR UPDATE until the surrounding
// transaction ends.
func (r *GormStockBatchRepository) ListEligible(ctx context.Context, variantID uuid.UUID) ([]inventory.StockBatch, error) {
	query := r.db.WithContext(ctx).
		Where("product_variant_id = ? AND deleted_at IS NULL AND quantity_remaining > 0", variantID).
		Order(fifoOrder)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []models.StockBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStockBatches(rows), nil
}

// FindByVariant lists a variant's batches in FIFO order, including empty ones
func (r *GormStockBatchRepository) FindByVariant(ctx context.Context, variantID uuid.UUID, filter shared.Filter) ([]inventory.StockBatch, error) {
	query := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order(fifoOrder)
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.StockBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStockBatches(rows), nil
}

// AdjustRemaining applies delta in one guarded UPDATE, so a concurrent
// writer can never push quantity_remaining outside [0, quantity_received].
func (r *GormStockBatchRepository) AdjustRemaining(ctx context.Context, batchID uuid.UUID, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockBatchModel{}).
		Where("id = ? AND quantity_remaining + ? >= 0 AND quantity_remaining + ? <= quantity_received", batchID, delta, delta).
		UpdateColumns(map[string]any{
			"quantity_remaining": gorm.Expr("quantity_remaining + ?", delta),
			"updated_at":         shared.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.FindByID(ctx, batchID)
	if err != nil {
		return err
	}
	return inventory.NewBatchQuantityConflictError(batchID, current.QuantityRemaining, delta)
}

// Save creates or updates a stock batch
func (r *GormStockBatchRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	return r.db.WithContext(ctx).Save(models.StockBatchModelFromDomain(batch)).Error
}

func toStockBatches(rows []models.StockBatchModel) []inventory.StockBatch {
	batches := make([]inventory.StockBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// Ensure GormStockBatchRepository implements StockBatchRepository
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
