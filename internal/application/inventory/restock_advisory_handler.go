package inventory

import (
	"context"

	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RestockAdvisory is an operator-facing hint that a batch ran out
type RestockAdvisory struct {
	BatchID          uuid.UUID
	ProductVariantID uuid.UUID
	SaleItemID       uuid.UUID
}

// RestockNotifier delivers restock advisories
type RestockNotifier interface {
	Notify(ctx context.Context, advisory RestockAdvisory) error
}

// RestockAdvisoryHandler turns StockBatchExhausted events into restock advisories.
type RestockAdvisoryHandler struct {
	logger   *zap.Logger
	notifier RestockNotifier
}

// NewRestockAdvisoryHandler creates a new handler that logs advisories
func NewRestockAdvisoryHandler(logger *zap.Logger) *RestockAdvisoryHandler {
	return &RestockAdvisoryHandler{
		logger:   logger,
		notifier: NewLoggingRestockNotifier(logger),
	}
}

// WithNotifier replaces the notifier
func (h *RestockAdvisoryHandler) WithNotifier(n RestockNotifier) *RestockAdvisoryHandler {
	h.notifier = n
	return h
}

// EventTypes implements shared.EventHandler
func (h *RestockAdvisoryHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBatchExhausted}
}

// Handle implements shared.EventHandler
func (h *RestockAdvisoryHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	exhausted, ok := event.(*inventory.StockBatchExhaustedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBatchExhausted),
			zap.String("actual", event.EventType()),
		)
		return nil
	}

	return h.notifier.Notify(ctx, RestockAdvisory{
		BatchID:          exhausted.BatchID,
		ProductVariantID: exhausted.ProductVariantID,
		SaleItemID:       exhausted.SaleItemID,
	})
}

// LoggingRestockNotifier writes advisories to the log
type LoggingRestockNotifier struct {
	logger *zap.Logger
}

// NewLoggingRestockNotifier creates a new LoggingRestockNotifier
func NewLoggingRestockNotifier(logger *zap.Logger) *LoggingRestockNotifier {
	return &LoggingRestockNotifier{logger: logger}
}

// Notify implements RestockNotifier
func (n *LoggingRestockNotifier) Notify(_ context.Context, a RestockAdvisory) error {
	n.logger.Info("stock batch exhausted, restock soon",
		zap.String("batch_id", a.BatchID.String()),
		zap.String("product_variant_id", a.ProductVariantID.String()),
		zap.String("sale_item_id", a.SaleItemID.String()),
	)
	return nil
}

var _ shared.EventHandler = (*RestockAdvisoryHandler)(nil)
