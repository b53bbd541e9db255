package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/catalog"
	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiveBatchInput is a stock intake
type ReceiveBatchInput struct {
	ProductVariantID    uuid.UUID  `json:"product_variant_id" validate:"required"`
	Quantity            int64      `json:"quantity" validate:"gt=0"`
	BuyPricePerUnit     int64      `json:"buy_price_per_unit" validate:"gte=0"`
	SellPricePerUnit    int64      `json:"sell_price_per_unit" validate:"gte=0"`
	MinSalePricePerUnit int64      `json:"min_sale_price_per_unit" validate:"gte=0"`
	ReceivedAt          time.Time  `json:"received_at"`
	SupplierID          *uuid.UUID `json:"supplier_id,omitempty"`
}

// StockBatchResponse represents a batch in API responses.
// Timestamps are milliseconds since the Unix epoch.
type StockBatchResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ProductVariantID    uuid.UUID  `json:"product_variant_id"`
	QuantityReceived    int64      `json:"quantity_received"`
	QuantityRemaining   int64      `json:"quantity_remaining"`
	BuyPricePerUnit     int64      `json:"buy_price_per_unit"`
	SellPricePerUnit    int64      `json:"sell_price_per_unit"`
	MinSalePricePerUnit int64      `json:"min_sale_price_per_unit"`
	ReceivedAt          int64      `json:"received_at"`
	SupplierID          *uuid.UUID `json:"supplier_id,omitempty"`
	RemainingValue      int64      `json:"remaining_value"`
	Eligible            bool       `json:"eligible"`
	CreatedAt           int64      `json:"created_at"`
}

// VariantStockResponse lists a variant's batches in FIFO order
type VariantStockResponse struct {
	ProductVariantID uuid.UUID            `json:"product_variant_id"`
	Available        int64                `json:"available"`
	AvailableValue   int64                `json:"available_value"`
	Batches          []StockBatchResponse `json:"batches"`
}

// BatchService handles stock intake and batch queries.
type BatchService struct {
	batchRepo   inventory.StockBatchRepository
	variantRepo catalog.ProductVariantRepository
	publisher   shared.EventPublisher
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	batchRepo inventory.StockBatchRepository,
	variantRepo catalog.ProductVariantRepository,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		batchRepo:   batchRepo,
		variantRepo: variantRepo,
		validate:    validator.New(),
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher for intake events
func (s *BatchService) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

// ReceiveBatch records a stock intake
func (s *BatchService) ReceiveBatch(ctx context.Context, in ReceiveBatchInput) (*StockBatchResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, shared.ErrValidation.WithCause(err)
	}
	if err := s.requireVariant(ctx, in.ProductVariantID); err != nil {
		return nil, err
	}

	batch, err := inventory.NewStockBatch(
		in.ProductVariantID,
		in.Quantity,
		in.BuyPricePerUnit, in.SellPricePerUnit, in.MinSalePricePerUnit,
		in.ReceivedAt,
		in.SupplierID,
	)
	if err != nil {
		return nil, err
	}

	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("save stock batch: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, inventory.NewStockBatchReceivedEvent(batch)); err != nil {
			s.logger.Warn("failed to publish batch received event", zap.Error(err))
		}
	}

	s.logger.Info("stock batch received",
		zap.String("batch_id", batch.ID.String()),
		zap.String("product_variant_id", batch.ProductVariantID.String()),
		zap.Int64("quantity", batch.QuantityReceived),
	)

	resp := toStockBatchResponse(batch)
	return &resp, nil
}

// ListVariantBatches lists the variant's batches in FIFO order with the
// quantity currently available for allocation.
func (s *BatchService) ListVariantBatches(ctx context.Context, variantID uuid.UUID, filter shared.Filter) (*VariantStockResponse, error) {
	if err := s.requireVariant(ctx, variantID); err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.FindByVariant(ctx, variantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list stock batches: %w", err)
	}

	resp := &VariantStockResponse{
		ProductVariantID: variantID,
		Batches:          make([]StockBatchResponse, 0, len(batches)),
	}
	for i := range batches {
		if batches[i].IsEligible() {
			resp.Available += batches[i].QuantityRemaining
			resp.AvailableValue += batches[i].TotalValue()
		}
		resp.Batches = append(resp.Batches, toStockBatchResponse(&batches[i]))
	}
	return resp, nil
}

func (s *BatchService) requireVariant(ctx context.Context, id uuid.UUID) error {
	_, err := s.variantRepo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainErrorf("VARIANT_NOT_FOUND", "Product variant %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("load variant: %w", err)
	}
	return nil
}

func toStockBatchResponse(b *inventory.StockBatch) StockBatchResponse {
	return StockBatchResponse{
		ID:                  b.ID,
		ProductVariantID:    b.ProductVariantID,
		QuantityReceived:    b.QuantityReceived,
		QuantityRemaining:   b.QuantityRemaining,
		BuyPricePerUnit:     b.BuyPricePerUnit,
		SellPricePerUnit:    b.SellPricePerUnit,
		MinSalePricePerUnit: b.MinSalePricePerUnit,
		ReceivedAt:          b.ReceivedAt.UnixMilli(),
		SupplierID:          b.SupplierID,
		RemainingValue:      b.TotalValue(),
		Eligible:            b.IsEligible(),
		CreatedAt:           b.CreatedAt.UnixMilli(),
	}
}
