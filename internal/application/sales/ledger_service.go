package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/erp/inventory-ledger/internal/domain/shared/strategy"
	"github.com/erp/inventory-ledger/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const ledgerSpanService = "sale_item_ledger"

// SaleItemLedger owns the lifecycle of sale items: it allocates stock with
// FIFO, records which batches supplied each item, keeps batch counters in
// step and maintains the parent sale's total.
//
// Every operation holds the variant lock(s) for its whole duration and runs
// inside one TransactionScope.Execute. Batch counters are only changed
// through the repository's guarded AdjustRemaining.
type SaleItemLedger struct {
	scope     TransactionScope
	locker    VariantLocker
	allocator inventory.AllocationStrategy
	costing   inventory.CostStrategy
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSaleItemLedger creates a ledger using FIFO allocation and weighted average costing.
func NewSaleItemLedger(scope TransactionScope, locker VariantLocker, logger *zap.Logger) *SaleItemLedger {
	if locker == nil {
		locker = NoOpVariantLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleItemLedger{
		scope:     scope,
		locker:    locker,
		allocator: inventory.NewFIFOAllocator(),
		costing:   inventory.NewWeightedAverageCostAccountant(),
		validate:  validator.New(),
		logger:    logger,
	}
}

// Strategies returns the allocation and cost strategies in use
func (l *SaleItemLedger) Strategies() []strategy.Strategy {
	return []strategy.Strategy{l.allocator, l.costing}
}

// SetEventPublisher sets the publisher for exhausted-batch events
func (l *SaleItemLedger) SetEventPublisher(publisher shared.EventPublisher) {
	l.publisher = publisher
}

// SetLedgerMetrics sets the metrics collector
func (l *SaleItemLedger) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	l.metrics = m
}

// CreateSaleItem allocates stock for a new line and records it.
// Allocation failures are returned untouched and leave no writes behind.
func (l *SaleItemLedger) CreateSaleItem(ctx context.Context, in CreateSaleItemInput) (result *SaleItemResult, err error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, ledgerSpanService, telemetry.LedgerOpCreate,
		telemetry.SpanAttrSaleID, in.SaleID,
		telemetry.SpanAttrVariantID, in.VariantID,
		telemetry.SpanAttrQuantity, in.QuantitySold,
	)
	defer func() { l.finish(ctx, span, telemetry.LedgerOpCreate, start, err) }()

	if err := l.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	unlock, err := l.locker.Lock(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var allocation *inventory.Allocation
	err = l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := requireSale(ctx, repos, in.SaleID); err != nil {
			return err
		}
		if err := requireVariant(ctx, repos, in.VariantID); err != nil {
			return err
		}

		item, err := sales.NewSaleItem(in.SaleID, in.VariantID, in.QuantitySold, in.PriceAtSale)
		if err != nil {
			return err
		}

		plan, cost, err := l.plan(ctx, repos, in.VariantID, in.QuantitySold)
		if err != nil {
			return err
		}
		item.CostAtSale = cost

		undo := newUndoLog()
		if err := repos.SaleItems().Create(ctx, item); err != nil {
			return fmt.Errorf("create sale item: %w", err)
		}
		undo.push("delete sale item", func(ctx context.Context) error {
			return repos.SaleItems().Delete(ctx, item.ID)
		})

		rows, err := l.apply(ctx, repos, undo, item.ID, plan)
		if err != nil {
			return l.abort(ctx, undo, item.ID, err)
		}
		if err := l.adjustSaleTotal(ctx, repos, undo, item.SaleID, item.LineTotal()); err != nil {
			return l.abort(ctx, undo, item.ID, err)
		}

		allocation = plan
		result = &SaleItemResult{
			SaleItemResponse:  ToSaleItemResponse(item, rows),
			ExhaustedBatchIDs: plan.ExhaustedBatchIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.afterAllocation(ctx, result.ID, allocation)
	return result, nil
}

// UpdateSaleItem changes a line. The allocation is redone only when the
// variant or quantity changes; a price or sale change touches no batch.
//
// If the new allocation fails after the old one was released, the release
// is undone (rows re-inserted with their original ids and timestamps,
// batches re-decremented) and the allocator's error is returned.
func (l *SaleItemLedger) UpdateSaleItem(ctx context.Context, in UpdateSaleItemInput) (result *SaleItemResult, err error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, ledgerSpanService, telemetry.LedgerOpUpdate,
		telemetry.SpanAttrSaleItemID, in.SaleItemID,
		telemetry.SpanAttrVariantID, in.VariantID,
		telemetry.SpanAttrQuantity, in.QuantitySold,
	)
	defer func() { l.finish(ctx, span, telemetry.LedgerOpUpdate, start, err) }()

	if err := l.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	current, err := l.peekSaleItem(ctx, in.SaleItemID)
	if err != nil {
		return nil, err
	}

	unlock, err := l.locker.Lock(ctx, current.ProductVariantID, in.VariantID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var allocation *inventory.Allocation
	err = l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := requireLockedSaleItem(ctx, repos, current)
		if err != nil {
			return err
		}
		if _, err := requireSale(ctx, repos, in.SaleID); err != nil {
			return err
		}
		if err := requireVariant(ctx, repos, in.VariantID); err != nil {
			return err
		}

		before := *item
		oldLine, oldSaleID := item.LineTotal(), item.SaleID
		undo := newUndoLog()
		var rows []sales.SaleItemBatch

		if !item.NeedsReallocation(in.VariantID, in.QuantitySold) {
			if err := item.Reprice(in.SaleID, in.PriceAtSale); err != nil {
				return err
			}
			rows, err = repos.SaleItemBatches().FindBySaleItem(ctx, item.ID)
			if err != nil {
				return fmt.Errorf("load allocations: %w", err)
			}
		} else {
			if _, err := l.release(ctx, repos, undo, item.ID); err != nil {
				return l.abort(ctx, undo, item.ID, err)
			}

			plan, cost, err := l.plan(ctx, repos, in.VariantID, in.QuantitySold)
			if err != nil {
				return l.abort(ctx, undo, item.ID, err)
			}

			rows, err = l.apply(ctx, repos, undo, item.ID, plan)
			if err != nil {
				return l.abort(ctx, undo, item.ID, err)
			}
			if err := item.Reallocate(in.SaleID, in.VariantID, in.QuantitySold, in.PriceAtSale, cost); err != nil {
				return l.abort(ctx, undo, item.ID, err)
			}
			allocation = plan
		}

		if err := repos.SaleItems().Update(ctx, item); err != nil {
			return l.abort(ctx, undo, item.ID, fmt.Errorf("update sale item: %w", err))
		}
		undo.push("restore sale item", func(ctx context.Context) error {
			return repos.SaleItems().Update(ctx, &before)
		})

		newLine := item.LineTotal()
		if oldSaleID == item.SaleID {
			err = l.adjustSaleTotal(ctx, repos, undo, item.SaleID, newLine-oldLine)
		} else {
			err = l.adjustSaleTotal(ctx, repos, undo, oldSaleID, -oldLine)
			if err == nil {
				err = l.adjustSaleTotal(ctx, repos, undo, item.SaleID, newLine)
			}
		}
		if err != nil {
			return l.abort(ctx, undo, item.ID, err)
		}

		result = &SaleItemResult{SaleItemResponse: ToSaleItemResponse(item, rows)}
		if allocation != nil {
			result.ExhaustedBatchIDs = allocation.ExhaustedBatchIDs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if allocation != nil {
		l.afterAllocation(ctx, result.ID, allocation)
	}
	return result, nil
}

// DeleteSaleItem returns the item's stock to its batches, removes the item
// and its allocation rows and lowers the sale total by the line total.
func (l *SaleItemLedger) DeleteSaleItem(ctx context.Context, saleItemID uuid.UUID) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, ledgerSpanService, telemetry.LedgerOpDelete,
		telemetry.SpanAttrSaleItemID, saleItemID,
	)
	defer func() { l.finish(ctx, span, telemetry.LedgerOpDelete, start, err) }()

	if saleItemID == uuid.Nil {
		return shared.NewDomainError(shared.ErrValidation.Code, "Sale item id is required")
	}

	current, err := l.peekSaleItem(ctx, saleItemID)
	if err != nil {
		return err
	}

	unlock, err := l.locker.Lock(ctx, current.ProductVariantID)
	if err != nil {
		return err
	}
	defer unlock()

	return l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := requireLockedSaleItem(ctx, repos, current)
		if err != nil {
			return err
		}
		before := *item

		undo := newUndoLog()
		if _, err := l.release(ctx, repos, undo, item.ID); err != nil {
			return l.abort(ctx, undo, item.ID, err)
		}

		if err := repos.SaleItems().Delete(ctx, item.ID); err != nil {
			return l.abort(ctx, undo, item.ID, fmt.Errorf("delete sale item: %w", err))
		}
		undo.push("re-create sale item", func(ctx context.Context) error {
			return repos.SaleItems().Create(ctx, &before)
		})

		if err := l.adjustSaleTotal(ctx, repos, undo, item.SaleID, -item.LineTotal()); err != nil {
			return l.abort(ctx, undo, item.ID, err)
		}
		return nil
	})
}

// plan runs the allocator against the variant's current eligible batches and prices the result.
func (l *SaleItemLedger) plan(ctx context.Context, repos TransactionalRepositories, variantID uuid.UUID, quantity int64) (*inventory.Allocation, int64, error) {
	batches, err := repos.StockBatches().ListEligible(ctx, variantID)
	if err != nil {
		return nil, 0, fmt.Errorf("list eligible batches: %w", err)
	}

	allocation, err := l.allocator.Allocate(variantID, quantity, batches)
	if err != nil {
		return nil, 0, err
	}

	cost, err := l.costing.UnitCost(allocation.Lines, quantity)
	if err != nil {
		return nil, 0, err
	}

	telemetry.SetAttributes(trace.SpanFromContext(ctx),
		telemetry.SpanAttrAllocationStrategy, l.allocator.Name(),
		telemetry.SpanAttrCostStrategy, l.costing.Name(),
		telemetry.SpanAttrBatchCount, len(allocation.Lines),
	)

	remainingAfter := make([]int64, 0, len(allocation.Lines))
	for _, line := range allocation.Lines {
		remainingAfter = append(remainingAfter, line.RemainingAfter)
	}
	l.logger.Debug("stock allocated",
		zap.String("allocation_strategy", l.allocator.Name()),
		zap.String("cost_strategy", l.costing.Name()),
		zap.String("variant_id", variantID.String()),
		zap.Int64("quantity", quantity),
		zap.Int("batches", len(allocation.Lines)),
		zap.Int64s("remaining_after", remainingAfter),
		zap.Int64("allocated_cost", allocation.TotalCost()),
		zap.Int64("cost_at_sale", cost),
	)
	return allocation, cost, nil
}

// apply persists the allocation rows and decrements each batch.
func (l *SaleItemLedger) apply(ctx context.Context, repos TransactionalRepositories, undo *undoLog, saleItemID uuid.UUID, allocation *inventory.Allocation) ([]sales.SaleItemBatch, error) {
	rows := sales.NewSaleItemBatches(saleItemID, allocation)
	if err := repos.SaleItemBatches().CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("create allocations: %w", err)
	}
	undo.push("delete new allocations", func(ctx context.Context) error {
		return repos.SaleItemBatches().DeleteBySaleItem(ctx, saleItemID)
	})

	for _, line := range allocation.Lines {
		if err := repos.StockBatches().AdjustRemaining(ctx, line.BatchID, -line.Quantity); err != nil {
			return nil, fmt.Errorf("decrement batch %s: %w", line.BatchID, err)
		}
		undo.push("restore batch "+line.BatchID.String(), func(ctx context.Context) error {
			return repos.StockBatches().AdjustRemaining(ctx, line.BatchID, line.Quantity)
		})
	}
	return rows, nil
}

// release returns the item's allocated units to their batches and deletes the allocation rows.
func (l *SaleItemLedger) release(ctx context.Context, repos TransactionalRepositories, undo *undoLog, saleItemID uuid.UUID) ([]sales.SaleItemBatch, error) {
	original, err := repos.SaleItemBatches().FindBySaleItem(ctx, saleItemID)
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}

	for _, row := range original {
		if err := repos.StockBatches().AdjustRemaining(ctx, row.StockBatchID, row.QuantityFromBatch); err != nil {
			return nil, fmt.Errorf("restore batch %s: %w", row.StockBatchID, err)
		}
		undo.push("re-decrement batch "+row.StockBatchID.String(), func(ctx context.Context) error {
			return repos.StockBatches().AdjustRemaining(ctx, row.StockBatchID, -row.QuantityFromBatch)
		})
	}

	if err := repos.SaleItemBatches().DeleteBySaleItem(ctx, saleItemID); err != nil {
		return nil, fmt.Errorf("delete allocations: %w", err)
	}
	undo.push("re-insert original allocations", func(ctx context.Context) error {
		return repos.SaleItemBatches().CreateBatch(ctx, original)
	})

	return original, nil
}

func (l *SaleItemLedger) adjustSaleTotal(ctx context.Context, repos TransactionalRepositories, undo *undoLog, saleID uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	if err := repos.Sales().AdjustTotal(ctx, saleID, delta); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return sales.NewSaleNotFoundError(saleID)
		}
		return fmt.Errorf("adjust sale total: %w", err)
	}
	undo.push("revert sale total", func(ctx context.Context) error {
		return repos.Sales().AdjustTotal(ctx, saleID, -delta)
	})
	return nil
}

// abort undoes the writes recorded in undo when the scope cannot roll back
// by itself, then returns cause. A failing undo is escalated as a
// CompensationFailureError.
func (l *SaleItemLedger) abort(ctx context.Context, undo *undoLog, saleItemID uuid.UUID, cause error) error {
	if l.scope.Atomic() || undo.empty() {
		return cause
	}

	l.logger.Warn("compensating sale item operation",
		zap.String("sale_item_id", saleItemID.String()),
		zap.Int("steps", len(undo.steps)),
		zap.Error(cause),
	)

	if err := undo.run(ctx); err != nil {
		l.metrics.RecordCompensation(ctx, false)
		l.logger.Error("compensation failed, sale item state is inconsistent",
			zap.String("sale_item_id", saleItemID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return &CompensationFailureError{SaleItemID: saleItemID, Cause: cause, Err: err}
	}

	l.metrics.RecordCompensation(ctx, true)
	return cause
}

// peekSaleItem reads the item before locking so its current variant can be locked.
func (l *SaleItemLedger) peekSaleItem(ctx context.Context, id uuid.UUID) (*sales.SaleItem, error) {
	var item *sales.SaleItem
	err := l.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = requireSaleItem(ctx, repos, id)
		return err
	})
	return item, err
}

// afterAllocation records metrics and publishes exhausted-batch events once committed.
func (l *SaleItemLedger) afterAllocation(ctx context.Context, saleItemID uuid.UUID, allocation *inventory.Allocation) {
	l.metrics.RecordAllocation(ctx, allocation.TotalQuantity(), len(allocation.ExhaustedBatchIDs))

	if l.publisher == nil || len(allocation.ExhaustedBatchIDs) == 0 {
		return
	}
	events := make([]shared.DomainEvent, 0, len(allocation.ExhaustedBatchIDs))
	for _, batchID := range allocation.ExhaustedBatchIDs {
		events = append(events, inventory.NewStockBatchExhaustedEvent(batchID, allocation.VariantID, saleItemID))
	}
	if err := l.publisher.Publish(ctx, events...); err != nil {
		l.logger.Warn("failed to publish exhausted batch events", zap.Error(err))
	}
}

func (l *SaleItemLedger) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	defer span.End()

	outcome := telemetry.OutcomeSuccess
	switch {
	case err == nil:
		telemetry.SetOK(span)
	case IsCompensationFailure(err):
		outcome = telemetry.OutcomeError
		telemetry.RecordError(span, err)
	case shared.IsDomainError(err):
		outcome = telemetry.OutcomeRejected
		var de *shared.DomainError
		errors.As(err, &de)
		telemetry.SetAttributes(span, "error.code", de.Code)
		l.logger.Warn("sale item operation rejected",
			zap.String("operation", op),
			zap.String("code", de.Code),
			zap.String("reason", err.Error()),
		)
	default:
		outcome = telemetry.OutcomeError
		telemetry.RecordError(span, err)
		l.logger.Error("sale item operation failed", zap.String("operation", op), zap.Error(err))
	}

	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		l.metrics.RecordInsufficientStock(ctx, op)
	}
	l.metrics.RecordOperation(ctx, op, outcome, time.Since(start))
}

func requireSale(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*sales.Sale, error) {
	sale, err := repos.Sales().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, sales.NewSaleNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load sale: %w", err)
	}
	return sale, nil
}

func requireVariant(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) error {
	exists, err := repos.Variants().ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load variant: %w", err)
	}
	if !exists {
		return sales.NewVariantNotFoundError(id)
	}
	return nil
}

func requireSaleItem(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*sales.SaleItem, error) {
	item, err := repos.SaleItems().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, sales.NewSaleItemNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load sale item: %w", err)
	}
	return item, nil
}

// requireLockedSaleItem reloads the item under lock and checks that its
// variant did not change since it was peeked.
func requireLockedSaleItem(ctx context.Context, repos TransactionalRepositories, peeked *sales.SaleItem) (*sales.SaleItem, error) {
	item, err := requireSaleItem(ctx, repos, peeked.ID)
	if err != nil {
		return nil, err
	}
	if item.ProductVariantID != peeked.ProductVariantID {
		return nil, shared.ErrConcurrencyConflict
	}
	return item, nil
}
