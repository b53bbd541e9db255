package sales

import (
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is one product-variant line of a sale.
//
// PriceAtSale is the amount charged for the whole line, not per unit.
// Every total computed from an item goes through LineTotal.
type SaleItem struct {
	shared.BaseEntity
	SaleID           uuid.UUID
	ProductVariantID uuid.UUID
	QuantitySold     int64
	PriceAtSale      int64
	CostAtSale       int64 // weighted average unit cost of the allocated batches
}

// NewSaleItem creates a sale item. CostAtSale is set once the allocation is priced.
func NewSaleItem(saleID, variantID uuid.UUID, quantity, price int64) (*SaleItem, error) {
	if err := validateLine(saleID, variantID, quantity, price); err != nil {
		return nil, err
	}
	return &SaleItem{
		BaseEntity:       shared.NewBaseEntity(),
		SaleID:           saleID,
		ProductVariantID: variantID,
		QuantitySold:     quantity,
		PriceAtSale:      price,
	}, nil
}

// LineTotal is the amount this line contributes to its sale's total.
func (i *SaleItem) LineTotal() int64 {
	return i.PriceAtSale
}

// UnitPrice derives a per-unit price for display and reporting.
func (i *SaleItem) UnitPrice() decimal.Decimal {
	if i.QuantitySold == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(i.PriceAtSale).Div(decimal.NewFromInt(i.QuantitySold)).Round(2)
}

// NeedsReallocation reports whether moving to (variantID, quantity) invalidates
// the current batch allocation.
func (i *SaleItem) NeedsReallocation(variantID uuid.UUID, quantity int64) bool {
	return variantID != i.ProductVariantID || quantity != i.QuantitySold
}

// Reprice changes only the header fields. The allocation stays as it is.
func (i *SaleItem) Reprice(saleID uuid.UUID, price int64) error {
	if err := validateLine(saleID, i.ProductVariantID, i.QuantitySold, price); err != nil {
		return err
	}
	i.SaleID = saleID
	i.PriceAtSale = price
	i.Touch()
	return nil
}

// Reallocate records a new variant, quantity, price and cost after the
// allocation has been redone.
func (i *SaleItem) Reallocate(saleID, variantID uuid.UUID, quantity, price, cost int64) error {
	if err := validateLine(saleID, variantID, quantity, price); err != nil {
		return err
	}
	i.SaleID = saleID
	i.ProductVariantID = variantID
	i.QuantitySold = quantity
	i.PriceAtSale = price
	i.CostAtSale = cost
	i.Touch()
	return nil
}

func validateLine(saleID, variantID uuid.UUID, quantity, price int64) error {
	if saleID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Sale is required")
	}
	if variantID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Product variant is required")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity sold must be positive")
	}
	if price <= 0 {
		return shared.NewDomainError("INVALID_PRICE", "Price at sale must be positive")
	}
	return nil
}
