package handler

import (
	"context"
	"net/http"

	appinventory "github.com/erp/inventory-ledger/internal/application/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/interfaces/http/dto"
	"github.com/erp/inventory-ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BatchService is the stock intake surface the handler needs
type BatchService interface {
	ReceiveBatch(ctx context.Context, in appinventory.ReceiveBatchInput) (*appinventory.StockBatchResponse, error)
	ListVariantBatches(ctx context.Context, variantID uuid.UUID, filter shared.Filter) (*appinventory.VariantStockResponse, error)
}

// ReceiveBatchRequest is the body of POST /stock-batches.
// ReceivedAt is epoch milliseconds and defaults to now.
type ReceiveBatchRequest struct {
	ProductVariantID    string  `json:"product_variant_id" binding:"required,uuid"`
	Quantity            int64   `json:"quantity" binding:"gt=0"`
	BuyPricePerUnit     int64   `json:"buy_price_per_unit" binding:"gte=0"`
	SellPricePerUnit    int64   `json:"sell_price_per_unit" binding:"gte=0"`
	MinSalePricePerUnit int64   `json:"min_sale_price_per_unit" binding:"gte=0"`
	ReceivedAt          *int64  `json:"received_at" binding:"omitempty,gt=0"`
	SupplierID          *string `json:"supplier_id" binding:"omitempty,uuid"`
}

// StockBatchHandler serves stock intake and per-variant batch listings
type StockBatchHandler struct {
	BaseHandler
	batches BatchService
}

// NewStockBatchHandler creates a new StockBatchHandler
func NewStockBatchHandler(batches BatchService) *StockBatchHandler {
	return &StockBatchHandler{batches: batches}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *StockBatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stock-batches", h.Receive)
	rg.GET("/variants/:id/batches", h.ListByVariant)
}

// Receive handles POST /stock-batches
func (h *StockBatchHandler) Receive(c *gin.Context) {
	var req ReceiveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := appinventory.ReceiveBatchInput{
		ProductVariantID:    uuid.MustParse(req.ProductVariantID),
		Quantity:            req.Quantity,
		BuyPricePerUnit:     req.BuyPricePerUnit,
		SellPricePerUnit:    req.SellPricePerUnit,
		MinSalePricePerUnit: req.MinSalePricePerUnit,
	}
	if req.ReceivedAt != nil {
		in.ReceivedAt = shared.FromEpochMillis(*req.ReceivedAt)
	}
	if req.SupplierID != nil {
		supplierID := uuid.MustParse(*req.SupplierID)
		in.SupplierID = &supplierID
	}

	batch, err := h.batches.ReceiveBatch(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// ListByVariant handles GET /variants/:id/batches
func (h *StockBatchHandler) ListByVariant(c *gin.Context) {
	variantID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Invalid query parameters", middleware.GetRequestID(c), middleware.ValidationDetails(err)))
		return
	}
	q = q.Normalize()

	stock, err := h.batches.ListVariantBatches(c.Request.Context(), variantID, shared.Filter{
		Page:           q.Page,
		PageSize:       q.PageSize,
		IncludeDeleted: q.IncludeDeleted,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPagedResponse(stock, q.Page, q.PageSize, len(stock.Batches), middleware.GetRequestID(c)))
}
