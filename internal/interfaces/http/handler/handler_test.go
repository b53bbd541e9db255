package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appinventory "github.com/erp/inventory-ledger/internal/application/inventory"
	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/interfaces/http/dto"
	"github.com/erp/inventory-ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockSaleService struct{ mock.Mock }

func (m *mockSaleService) CreateSale(ctx context.Context, in appsales.CreateSaleInput) (*appsales.SaleResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.SaleResponse), args.Error(1)
}

func (m *mockSaleService) GetSale(ctx context.Context, id uuid.UUID) (*appsales.SaleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.SaleResponse), args.Error(1)
}

func (m *mockSaleService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) CreateSaleItem(ctx context.Context, in appsales.CreateSaleItemInput) (*appsales.SaleItemResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.SaleItemResult), args.Error(1)
}

func (m *mockLedger) UpdateSaleItem(ctx context.Context, in appsales.UpdateSaleItemInput) (*appsales.SaleItemResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsales.SaleItemResult), args.Error(1)
}

func (m *mockLedger) DeleteSaleItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockBatchService struct{ mock.Mock }

func (m *mockBatchService) ReceiveBatch(ctx context.Context, in appinventory.ReceiveBatchInput) (*appinventory.StockBatchResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.StockBatchResponse), args.Error(1)
}

func (m *mockBatchService) ListVariantBatches(ctx context.Context, variantID uuid.UUID, filter shared.Filter) (*appinventory.VariantStockResponse, error) {
	args := m.Called(ctx, variantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.VariantStockResponse), args.Error(1)
}

type stubDB struct{ err error }

func (s stubDB) Ping() error    { return s.err }
func (s stubDB) Driver() string { return "sqlite" }

type registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newEngine(h registrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func do(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSaleHandler_Create(t *testing.T) {
	svc := new(mockSaleService)
	engine := newEngine(NewSaleHandler(svc, new(mockLedger)))

	saleID := uuid.New()
	svc.On("CreateSale", mock.Anything, mock.MatchedBy(func(in appsales.CreateSaleInput) bool {
		return in.CustomerName == "Ada" && in.Date.UnixMilli() == 1704067200000
	})).Return(&appsales.SaleResponse{ID: saleID, Date: 1704067200000}, nil)

	w := do(engine, http.MethodPost, "/api/v1/sales", map[string]any{
		"date":          1704067200000,
		"customer_name": "Ada",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, saleID.String(), resp.Data.(map[string]any)["id"])
	svc.AssertExpectations(t)
}

func TestSaleHandler_Create_DefaultsDate(t *testing.T) {
	svc := new(mockSaleService)
	engine := newEngine(NewSaleHandler(svc, new(mockLedger)))

	svc.On("CreateSale", mock.Anything, mock.MatchedBy(func(in appsales.CreateSaleInput) bool {
		return in.Date.IsZero()
	})).Return(&appsales.SaleResponse{ID: uuid.New()}, nil)

	w := do(engine, http.MethodPost, "/api/v1/sales", map[string]any{})
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestSaleHandler_Get(t *testing.T) {
	svc := new(mockSaleService)
	engine := newEngine(NewSaleHandler(svc, new(mockLedger)))

	t.Run("found", func(t *testing.T) {
		id := uuid.New()
		svc.On("GetSale", mock.Anything, id).Return(&appsales.SaleResponse{ID: id, TotalAmount: 500}, nil).Once()

		w := do(engine, http.MethodGet, "/api/v1/sales/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 500, decode(t, w).Data.(map[string]any)["total_amount"])
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New()
		svc.On("GetSale", mock.Anything, id).Return(nil, sales.NewSaleNotFoundError(id)).Once()

		w := do(engine, http.MethodGet, "/api/v1/sales/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeSaleNotFound, resp.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := do(engine, http.MethodGet, "/api/v1/sales/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
	})
}

func TestSaleHandler_Delete(t *testing.T) {
	svc := new(mockSaleService)
	engine := newEngine(NewSaleHandler(svc, new(mockLedger)))

	id := uuid.New()
	svc.On("DeleteSale", mock.Anything, id).Return(nil)

	w := do(engine, http.MethodDelete, "/api/v1/sales/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestSaleHandler_AddItem(t *testing.T) {
	ledger := new(mockLedger)
	engine := newEngine(NewSaleHandler(new(mockSaleService), ledger))

	saleID := uuid.New()
	variantID := uuid.New()
	path := "/api/v1/sales/" + saleID.String() + "/items"

	t.Run("created", func(t *testing.T) {
		exhausted := uuid.New()
		ledger.On("CreateSaleItem", mock.Anything, appsales.CreateSaleItemInput{
			SaleID: saleID, VariantID: variantID, QuantitySold: 6, PriceAtSale: 120,
		}).Return(&appsales.SaleItemResult{
			SaleItemResponse:  appsales.SaleItemResponse{ID: uuid.New(), CostAtSale: 66},
			ExhaustedBatchIDs: []uuid.UUID{exhausted},
		}, nil).Once()

		w := do(engine, http.MethodPost, path, map[string]any{
			"product_variant_id": variantID.String(),
			"quantity_sold":      6,
			"price_at_sale":      120,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.EqualValues(t, 66, data["cost_at_sale"])
		assert.Equal(t, []any{exhausted.String()}, data["exhausted_batches"])
	})

	t.Run("insufficient stock", func(t *testing.T) {
		ledger.On("CreateSaleItem", mock.Anything, mock.MatchedBy(func(in appsales.CreateSaleItemInput) bool {
			return in.QuantitySold == 50
		})).Return(nil, inventory.NewInsufficientStockError(variantID, 8, 50)).Once()

		w := do(engine, http.MethodPost, path, map[string]any{
			"product_variant_id": variantID.String(),
			"quantity_sold":      50,
			"price_at_sale":      1000,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
		assert.Equal(t, "Insufficient stock: available 8, requested 50", resp.Error.Message)
	})

	t.Run("validation", func(t *testing.T) {
		w := do(engine, http.MethodPost, path, map[string]any{
			"product_variant_id": "nope",
			"quantity_sold":      0,
			"price_at_sale":      10,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"product_variant_id", "quantity_sold"}, fields)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := do(engine, http.MethodPost, path, "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w).Error.Code)
	})

	ledger.AssertExpectations(t)
}

func TestSaleItemHandler_Update(t *testing.T) {
	ledger := new(mockLedger)
	engine := newEngine(NewSaleItemHandler(ledger))

	itemID, saleID, variantID := uuid.New(), uuid.New(), uuid.New()
	body := map[string]any{
		"sale_id":            saleID.String(),
		"product_variant_id": variantID.String(),
		"quantity_sold":      2,
		"price_at_sale":      40,
	}
	in := appsales.UpdateSaleItemInput{
		SaleItemID: itemID, SaleID: saleID, VariantID: variantID, QuantitySold: 2, PriceAtSale: 40,
	}

	t.Run("ok", func(t *testing.T) {
		ledger.On("UpdateSaleItem", mock.Anything, in).
			Return(&appsales.SaleItemResult{SaleItemResponse: appsales.SaleItemResponse{ID: itemID}}, nil).Once()

		w := do(engine, http.MethodPut, "/api/v1/sale-items/"+itemID.String(), body)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("batch conflict is retryable", func(t *testing.T) {
		ledger.On("UpdateSaleItem", mock.Anything, in).
			Return(nil, inventory.NewBatchQuantityConflictError(uuid.New(), 0, -1)).Once()

		w := do(engine, http.MethodPut, "/api/v1/sale-items/"+itemID.String(), body)
		assert.Equal(t, http.StatusConflict, w.Code)
		code := decode(t, w).Error.Code
		assert.Equal(t, dto.ErrCodeBatchQuantityConflict, code)
		assert.True(t, dto.IsRetryable(code))
	})

	t.Run("compensation failure", func(t *testing.T) {
		ledger.On("UpdateSaleItem", mock.Anything, in).Return(nil, &appsales.CompensationFailureError{
			SaleItemID: itemID,
			Cause:      inventory.NewInsufficientStockError(variantID, 1, 2),
			Err:        errors.New("restore failed"),
		}).Once()

		w := do(engine, http.MethodPut, "/api/v1/sale-items/"+itemID.String(), body)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeCompensationFailed, decode(t, w).Error.Code)
	})

	ledger.AssertExpectations(t)
}

func TestSaleItemHandler_Delete(t *testing.T) {
	ledger := new(mockLedger)
	engine := newEngine(NewSaleItemHandler(ledger))

	t.Run("ok", func(t *testing.T) {
		id := uuid.New()
		ledger.On("DeleteSaleItem", mock.Anything, id).Return(nil).Once()
		w := do(engine, http.MethodDelete, "/api/v1/sale-items/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("unexpected error is opaque", func(t *testing.T) {
		id := uuid.New()
		ledger.On("DeleteSaleItem", mock.Anything, id).Return(errors.New("pq: connection reset")).Once()
		w := do(engine, http.MethodDelete, "/api/v1/sale-items/"+id.String(), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "pq")
	})
}

func TestStockBatchHandler_Receive(t *testing.T) {
	svc := new(mockBatchService)
	engine := newEngine(NewStockBatchHandler(svc))

	variantID, supplierID := uuid.New(), uuid.New()
	svc.On("ReceiveBatch", mock.Anything, mock.MatchedBy(func(in appinventory.ReceiveBatchInput) bool {
		return in.ProductVariantID == variantID &&
			in.Quantity == 10 &&
			in.BuyPricePerUnit == 7 &&
			in.ReceivedAt.UnixMilli() == 1704153600000 &&
			in.SupplierID != nil && *in.SupplierID == supplierID
	})).Return(&appinventory.StockBatchResponse{ID: uuid.New(), QuantityRemaining: 10}, nil)

	w := do(engine, http.MethodPost, "/api/v1/stock-batches", map[string]any{
		"product_variant_id": variantID.String(),
		"quantity":           10,
		"buy_price_per_unit": 7,
		"received_at":        1704153600000,
		"supplier_id":        supplierID.String(),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)

	w = do(engine, http.MethodPost, "/api/v1/stock-batches", map[string]any{
		"product_variant_id": variantID.String(),
		"quantity":           -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStockBatchHandler_ListByVariant(t *testing.T) {
	svc := new(mockBatchService)
	engine := newEngine(NewStockBatchHandler(svc))

	variantID := uuid.New()
	svc.On("ListVariantBatches", mock.Anything, variantID, shared.Filter{Page: 2, PageSize: 1}).
		Return(&appinventory.VariantStockResponse{
			ProductVariantID: variantID,
			Available:        8,
			Batches:          []appinventory.StockBatchResponse{{ID: uuid.New()}},
		}, nil)

	w := do(engine, http.MethodGet, "/api/v1/variants/"+variantID.String()+"/batches?page=2&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, dto.Meta{Page: 2, PageSize: 1, Count: 1}, *resp.Meta)
	assert.EqualValues(t, 8, resp.Data.(map[string]any)["available"])

	w = do(engine, http.MethodGet, "/api/v1/variants/"+variantID.String()+"/batches?page_size=9999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	for name, tc := range map[string]struct {
		err    error
		status int
	}{
		"up":   {nil, http.StatusOK},
		"down": {errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			engine := gin.New()
			NewHealthHandler(stubDB{err: tc.err}).RegisterRoutes(engine)
			w := do(engine, http.MethodGet, "/health", nil)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
