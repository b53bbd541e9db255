package models

import (
	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleModel is the persistence model for the Sale header.
type SaleModel struct {
	BaseModel
	Date          int64  `gorm:"not null;index"`
	TotalAmount   int64  `gorm:"not null;default:0"`
	CustomerName  string `gorm:"type:varchar(200)"`
	CustomerPhone string `gorm:"type:varchar(50)"`
	DeletedAt     *int64 `gorm:"index"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	return &sales.Sale{
		BaseEntity:    m.BaseModel.ToDomain(),
		Date:          shared.FromEpochMillis(m.Date),
		TotalAmount:   m.TotalAmount,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		DeletedAt:     timePtr(m.DeletedAt),
	}
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Date = shared.ToEpochMillis(s.Date)
	m.TotalAmount = s.TotalAmount
	m.CustomerName = s.CustomerName
	m.CustomerPhone = s.CustomerPhone
	m.DeletedAt = millisPtr(s.DeletedAt)
}

// SaleItemModel is the persistence model for a sale line.
type SaleItemModel struct {
	BaseModel
	SaleID           uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	QuantitySold     int64     `gorm:"not null;check:chk_sale_items_quantity,quantity_sold > 0"`
	PriceAtSale      int64     `gorm:"not null"`
	CostAtSale       int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem.
func (m *SaleItemModel) ToDomain() *sales.SaleItem {
	return &sales.SaleItem{
		BaseEntity:       m.BaseModel.ToDomain(),
		SaleID:           m.SaleID,
		ProductVariantID: m.ProductVariantID,
		QuantitySold:     m.QuantitySold,
		PriceAtSale:      m.PriceAtSale,
		CostAtSale:       m.CostAtSale,
	}
}

// FromDomain populates the persistence model from a domain SaleItem.
func (m *SaleItemModel) FromDomain(i *sales.SaleItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.SaleID = i.SaleID
	m.ProductVariantID = i.ProductVariantID
	m.QuantitySold = i.QuantitySold
	m.PriceAtSale = i.PriceAtSale
	m.CostAtSale = i.CostAtSale
}

// SaleItemBatchModel records how many units of a sale item came from one batch.
type SaleItemBatchModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleItemID        uuid.UUID `gorm:"type:uuid;not null;index"`
	StockBatchID      uuid.UUID `gorm:"type:uuid;not null;index"`
	QuantityFromBatch int64     `gorm:"not null;check:chk_sale_item_batches_quantity,quantity_from_batch > 0"`
	CostFromBatch     int64     `gorm:"not null"`
	CreatedAt         int64     `gorm:"not null;autoCreateTime:milli"`
}

// TableName returns the table name for GORM
func (SaleItemBatchModel) TableName() string {
	return "sale_item_batches"
}

// ToDomain converts the persistence model to a domain SaleItemBatch.
func (m *SaleItemBatchModel) ToDomain() sales.SaleItemBatch {
	return sales.SaleItemBatch{
		ID:                m.ID,
		SaleItemID:        m.SaleItemID,
		StockBatchID:      m.StockBatchID,
		QuantityFromBatch: m.QuantityFromBatch,
		CostFromBatch:     m.CostFromBatch,
		CreatedAt:         shared.FromEpochMillis(m.CreatedAt),
	}
}

// SaleItemBatchModelFromDomain creates a persistence model from a domain row.
func SaleItemBatchModelFromDomain(r sales.SaleItemBatch) SaleItemBatchModel {
	return SaleItemBatchModel{
		ID:                r.ID,
		SaleItemID:        r.SaleItemID,
		StockBatchID:      r.StockBatchID,
		QuantityFromBatch: r.QuantityFromBatch,
		CostFromBatch:     r.CostFromBatch,
		CreatedAt:         shared.ToEpochMillis(r.CreatedAt),
	}
}

// AllModels lists every model, in dependency order, for AutoMigrate.
func AllModels() []any {
	return []any{
		&ProductVariantModel{},
		&StockBatchModel{},
		&SaleModel{},
		&SaleItemModel{},
		&SaleItemBatchModel{},
	}
}
