package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a live sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a sale header
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	model := &models.SaleModel{}
	model.FromDomain(sale)
	return r.db.WithContext(ctx).Save(model).Error
}

// AdjustTotal adds delta to total_amount without reading it first
func (r *GormSaleRepository) AdjustTotal(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.updateLive(ctx, id, map[string]any{
		"total_amount": gorm.Expr("total_amount + ?", delta),
		"updated_at":   shared.Now().UnixMilli(),
	})
}

// SoftDelete stamps deleted_at on a live sale. total_amount is left alone so
// a concurrent AdjustTotal is never overwritten.
func (r *GormSaleRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.updateLive(ctx, id, map[string]any{
		"deleted_at": at.UnixMilli(),
		"updated_at": at.UnixMilli(),
	})
}

// Restore clears deleted_at
func (r *GormSaleRepository) Restore(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"deleted_at": nil,
			"updated_at": shared.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// updateLive applies columns to a sale that is not soft-deleted
func (r *GormSaleRepository) updateLive(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
