package models

import (
	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/google/uuid"
)

// ProductVariantModel is the persistence model for the ProductVariant read model.
type ProductVariantModel struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Name:       m.Name,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.ProductID = v.ProductID
	m.SKU = v.SKU
	m.Name = v.Name
}
