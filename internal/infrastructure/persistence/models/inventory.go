package models

import (
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockBatchModel is the persistence model for the StockBatch entity.
// The FIFO index matches the order ListEligible reads in.
type StockBatchModel struct {
	BaseModel
	ProductVariantID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_batches_fifo,priority:1"`
	QuantityReceived    int64      `gorm:"not null"`
	QuantityRemaining   int64      `gorm:"not null;check:chk_stock_batches_remaining,quantity_remaining >= 0 AND quantity_remaining <= quantity_received"`
	BuyPricePerUnit     int64      `gorm:"not null"`
	SellPricePerUnit    int64      `gorm:"not null;default:0"`
	MinSalePricePerUnit int64      `gorm:"not null;default:0"`
	ReceivedAt          int64      `gorm:"not null;index:idx_stock_batches_fifo,priority:2"`
	SupplierID          *uuid.UUID `gorm:"type:uuid"`
	DeletedAt           *int64
}

// TableName returns the table name for GORM
func (StockBatchModel) TableName() string {
	return "stock_batches"
}

// ToDomain converts the persistence model to a domain StockBatch entity.
func (m *StockBatchModel) ToDomain() *inventory.StockBatch {
	return &inventory.StockBatch{
		BaseEntity:          m.BaseModel.ToDomain(),
		ProductVariantID:    m.ProductVariantID,
		QuantityReceived:    m.QuantityReceived,
		QuantityRemaining:   m.QuantityRemaining,
		BuyPricePerUnit:     m.BuyPricePerUnit,
		SellPricePerUnit:    m.SellPricePerUnit,
		MinSalePricePerUnit: m.MinSalePricePerUnit,
		ReceivedAt:          shared.FromEpochMillis(m.ReceivedAt),
		SupplierID:          m.SupplierID,
		DeletedAt:           timePtr(m.DeletedAt),
	}
}

// FromDomain populates the persistence model from a domain StockBatch entity.
func (m *StockBatchModel) FromDomain(b *inventory.StockBatch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.ProductVariantID = b.ProductVariantID
	m.QuantityReceived = b.QuantityReceived
	m.QuantityRemaining = b.QuantityRemaining
	m.BuyPricePerUnit = b.BuyPricePerUnit
	m.SellPricePerUnit = b.SellPricePerUnit
	m.MinSalePricePerUnit = b.MinSalePricePerUnit
	m.ReceivedAt = shared.ToEpochMillis(b.ReceivedAt)
	m.SupplierID = b.SupplierID
	m.DeletedAt = millisPtr(b.DeletedAt)
}

// StockBatchModelFromDomain creates a new persistence model from a domain StockBatch.
func StockBatchModelFromDomain(b *inventory.StockBatch) *StockBatchModel {
	m := &StockBatchModel{}
	m.FromDomain(b)
	return m
}
