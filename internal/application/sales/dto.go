package sales

import (
	"time"

	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSaleItemInput is the input of SaleItemLedger.CreateSaleItem.
// PriceAtSale is the amount charged for the whole line.
type CreateSaleItemInput struct {
	SaleID       uuid.UUID `json:"sale_id" validate:"required"`
	VariantID    uuid.UUID `json:"product_variant_id" validate:"required"`
	QuantitySold int64     `json:"quantity_sold" validate:"gt=0"`
	PriceAtSale  int64     `json:"price_at_sale" validate:"gt=0"`
}

// UpdateSaleItemInput is the input of SaleItemLedger.UpdateSaleItem
type UpdateSaleItemInput struct {
	SaleItemID   uuid.UUID `json:"sale_item_id" validate:"required"`
	SaleID       uuid.UUID `json:"sale_id" validate:"required"`
	VariantID    uuid.UUID `json:"product_variant_id" validate:"required"`
	QuantitySold int64     `json:"quantity_sold" validate:"gt=0"`
	PriceAtSale  int64     `json:"price_at_sale" validate:"gt=0"`
}

// CreateSaleInput is the input of SaleService.CreateSale
type CreateSaleInput struct {
	Date          time.Time `json:"date"`
	CustomerName  string    `json:"customer_name" validate:"max=200"`
	CustomerPhone string    `json:"customer_phone" validate:"max=50"`
}

// AllocationResponse is one SaleItemBatch row
type AllocationResponse struct {
	ID                uuid.UUID `json:"id"`
	StockBatchID      uuid.UUID `json:"stock_batch_id"`
	QuantityFromBatch int64     `json:"quantity_from_batch"`
	CostFromBatch     int64     `json:"cost_from_batch"`
	CreatedAt         int64     `json:"created_at"`
}

// SaleItemResponse represents a sale item in API responses.
// Timestamps are milliseconds since the Unix epoch.
type SaleItemResponse struct {
	ID               uuid.UUID            `json:"id"`
	SaleID           uuid.UUID            `json:"sale_id"`
	ProductVariantID uuid.UUID            `json:"product_variant_id"`
	QuantitySold     int64                `json:"quantity_sold"`
	PriceAtSale      int64                `json:"price_at_sale"`
	UnitPrice        decimal.Decimal      `json:"unit_price"`
	CostAtSale       int64                `json:"cost_at_sale"`
	Allocations      []AllocationResponse `json:"allocations"`
	CreatedAt        int64                `json:"created_at"`
	UpdatedAt        int64                `json:"updated_at"`
}

// SaleItemResult is returned by ledger create and update.
// ExhaustedBatchIDs lists batches this operation emptied; it is advisory.
type SaleItemResult struct {
	SaleItemResponse
	ExhaustedBatchIDs []uuid.UUID `json:"exhausted_batches,omitempty"`
}

// SaleResponse represents a sale with its items
type SaleResponse struct {
	ID            uuid.UUID          `json:"id"`
	Date          int64              `json:"date"`
	TotalAmount   int64              `json:"total_amount"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     int64              `json:"created_at"`
	UpdatedAt     int64              `json:"updated_at"`
}

// ToSaleItemResponse converts a domain item and its allocation rows
func ToSaleItemResponse(item *sales.SaleItem, rows []sales.SaleItemBatch) SaleItemResponse {
	allocations := make([]AllocationResponse, 0, len(rows))
	for _, r := range rows {
		allocations = append(allocations, AllocationResponse{
			ID:                r.ID,
			StockBatchID:      r.StockBatchID,
			QuantityFromBatch: r.QuantityFromBatch,
			CostFromBatch:     r.CostFromBatch,
			CreatedAt:         r.CreatedAt.UnixMilli(),
		})
	}
	return SaleItemResponse{
		ID:               item.ID,
		SaleID:           item.SaleID,
		ProductVariantID: item.ProductVariantID,
		QuantitySold:     item.QuantitySold,
		PriceAtSale:      item.PriceAtSale,
		UnitPrice:        item.UnitPrice(),
		CostAtSale:       item.CostAtSale,
		Allocations:      allocations,
		CreatedAt:        item.CreatedAt.UnixMilli(),
		UpdatedAt:        item.UpdatedAt.UnixMilli(),
	}
}

// ToSaleResponse converts a sale header and its already converted items
func ToSaleResponse(sale *sales.Sale, items []SaleItemResponse) SaleResponse {
	if items == nil {
		items = []SaleItemResponse{}
	}
	return SaleResponse{
		ID:            sale.ID,
		Date:          sale.Date.UnixMilli(),
		TotalAmount:   sale.TotalAmount,
		CustomerName:  sale.CustomerName,
		CustomerPhone: sale.CustomerPhone,
		Items:         items,
		CreatedAt:     sale.CreatedAt.UnixMilli(),
		UpdatedAt:     sale.UpdatedAt.UnixMilli(),
	}
}
