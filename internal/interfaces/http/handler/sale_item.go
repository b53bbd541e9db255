package handler

import (
	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UpdateSaleItemRequest is the body of PUT /sale-items/:id
type UpdateSaleItemRequest struct {
	SaleID           string `json:"sale_id" binding:"required,uuid"`
	ProductVariantID string `json:"product_variant_id" binding:"required,uuid"`
	QuantitySold     int64  `json:"quantity_sold" binding:"gt=0"`
	PriceAtSale      int64  `json:"price_at_sale" binding:"gt=0"`
}

// SaleItemHandler serves changes to existing sale lines
type SaleItemHandler struct {
	BaseHandler
	ledger SaleItemLedger
}

// NewSaleItemHandler creates a new SaleItemHandler
func NewSaleItemHandler(ledger SaleItemLedger) *SaleItemHandler {
	return &SaleItemHandler{ledger: ledger}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SaleItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/sale-items")
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// Update handles PUT /sale-items/:id.
// The previous allocation is released and a new one is taken.
func (h *SaleItemHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateSaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.UpdateSaleItem(c.Request.Context(), appsales.UpdateSaleItemInput{
		SaleItemID:   id,
		SaleID:       uuid.MustParse(req.SaleID),
		VariantID:    uuid.MustParse(req.ProductVariantID),
		QuantitySold: req.QuantitySold,
		PriceAtSale:  req.PriceAtSale,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete handles DELETE /sale-items/:id
func (h *SaleItemHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeleteSaleItem(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
