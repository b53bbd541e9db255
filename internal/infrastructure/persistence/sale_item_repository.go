package persistence

import (
	"context"
	"errors"

	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleItemRepository implements SaleItemRepository using GORM
type GormSaleItemRepository struct {
	db *gorm.DB
}

// NewGormSaleItemRepository creates a new GormSaleItemRepository
func NewGormSaleItemRepository(db *gorm.DB) *GormSaleItemRepository {
	return &GormSaleItemRepository{db: db}
}

// FindByID finds a sale item by its ID
func (r *GormSaleItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleItem, error) {
	var model models.SaleItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale returns the items of a sale in creation order
func (r *GormSaleItemRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]sales.SaleItem, error) {
	var rows []models.SaleItemModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]sales.SaleItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Create inserts a new sale item
func (r *GormSaleItemRepository) Create(ctx context.Context, item *sales.SaleItem) error {
	model := &models.SaleItemModel{}
	model.FromDomain(item)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update overwrites every column of an existing sale item
func (r *GormSaleItemRepository) Update(ctx context.Context, item *sales.SaleItem) error {
	model := &models.SaleItemModel{}
	model.FromDomain(item)
	result := r.db.WithContext(ctx).Model(model).Select("*").Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a sale item
func (r *GormSaleItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ sales.SaleItemRepository = (*GormSaleItemRepository)(nil)

// GormSaleItemBatchRepository implements SaleItemBatchRepository using GORM
type GormSaleItemBatchRepository struct {
	db *gorm.DB
}

// NewGormSaleItemBatchRepository creates a new GormSaleItemBatchRepository
func NewGormSaleItemBatchRepository(db *gorm.DB) *GormSaleItemBatchRepository {
	return &GormSaleItemBatchRepository{db: db}
}

// FindBySaleItem returns the allocation rows of one item in creation order
func (r *GormSaleItemBatchRepository) FindBySaleItem(ctx context.Context, saleItemID uuid.UUID) ([]sales.SaleItemBatch, error) {
	var rows []models.SaleItemBatchModel
	if err := r.db.WithContext(ctx).
		Where("sale_item_id = ?", saleItemID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]sales.SaleItemBatch, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CreateBatch inserts rows keeping their ids and created_at
func (r *GormSaleItemBatchRepository) CreateBatch(ctx context.Context, rows []sales.SaleItemBatch) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([]models.SaleItemBatchModel, len(rows))
	for i, row := range rows {
		batch[i] = models.SaleItemBatchModelFromDomain(row)
	}
	return r.db.WithContext(ctx).Create(&batch).Error
}

// DeleteBySaleItem removes every allocation row of one item
func (r *GormSaleItemBatchRepository) DeleteBySaleItem(ctx context.Context, saleItemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("sale_item_id = ?", saleItemID).
		Delete(&models.SaleItemBatchModel{}).Error
}

var _ sales.SaleItemBatchRepository = (*GormSaleItemBatchRepository)(nil)
