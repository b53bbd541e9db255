package handler

import (
	"context"

	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleService is the sale header use-case surface the handler needs
type SaleService interface {
	CreateSale(ctx context.Context, in appsales.CreateSaleInput) (*appsales.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*appsales.SaleResponse, error)
	DeleteSale(ctx context.Context, id uuid.UUID) error
}

// SaleItemLedger is the ledger surface the handlers need
type SaleItemLedger interface {
	CreateSaleItem(ctx context.Context, in appsales.CreateSaleItemInput) (*appsales.SaleItemResult, error)
	UpdateSaleItem(ctx context.Context, in appsales.UpdateSaleItemInput) (*appsales.SaleItemResult, error)
	DeleteSaleItem(ctx context.Context, saleItemID uuid.UUID) error
}

// CreateSaleRequest is the body of POST /sales. Date is epoch milliseconds
// and defaults to now.
type CreateSaleRequest struct {
	Date          *int64 `json:"date" binding:"omitempty,gt=0"`
	CustomerName  string `json:"customer_name" binding:"max=200"`
	CustomerPhone string `json:"customer_phone" binding:"max=50"`
}

// AddSaleItemRequest is the body of POST /sales/:id/items.
// PriceAtSale is the total charged for the line.
type AddSaleItemRequest struct {
	ProductVariantID string `json:"product_variant_id" binding:"required,uuid"`
	QuantitySold     int64  `json:"quantity_sold" binding:"gt=0"`
	PriceAtSale      int64  `json:"price_at_sale" binding:"gt=0"`
}

// SaleHandler serves sale headers and adding lines to a sale
type SaleHandler struct {
	BaseHandler
	sales  SaleService
	ledger SaleItemLedger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleService, ledger SaleItemLedger) *SaleHandler {
	return &SaleHandler{sales: sales, ledger: ledger}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/sales")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/items", h.AddItem)
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := appsales.CreateSaleInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	}
	if req.Date != nil {
		in.Date = shared.FromEpochMillis(*req.Date)
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete handles DELETE /sales/:id. Every line's stock goes back to its batches.
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.sales.DeleteSale(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem handles POST /sales/:id/items
func (h *SaleHandler) AddItem(c *gin.Context) {
	saleID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req AddSaleItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.CreateSaleItem(c.Request.Context(), appsales.CreateSaleItemInput{
		SaleID:       saleID,
		VariantID:    uuid.MustParse(req.ProductVariantID),
		QuantitySold: req.QuantitySold,
		PriceAtSale:  req.PriceAtSale,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
