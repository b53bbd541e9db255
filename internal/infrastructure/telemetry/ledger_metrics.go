package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Ledger operation names
const (
	LedgerOpCreate = "create"
	LedgerOpUpdate = "update"
	LedgerOpDelete = "delete"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected" // domain error
	OutcomeError    = "error"    // infrastructure error
)

// LedgerMetrics counts sale-item ledger activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	logger *zap.Logger

	allocationsTotal       *Counter
	unitsAllocatedTotal    *Counter
	insufficientStockTotal *Counter
	batchesExhaustedTotal  *Counter
	compensationsTotal     *Counter
	operationDuration      *Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter, logger *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{logger: logger}
	var err error

	if lm.allocationsTotal, err = NewCounter(meter,
		"erp_ledger_allocations_total", "Number of FIFO allocations committed", "{allocations}"); err != nil {
		return nil, err
	}
	if lm.unitsAllocatedTotal, err = NewCounter(meter,
		"erp_ledger_units_allocated_total", "Units taken from stock batches", "{units}"); err != nil {
		return nil, err
	}
	if lm.insufficientStockTotal, err = NewCounter(meter,
		"erp_ledger_insufficient_stock_total", "Allocations rejected for lack of stock", "{requests}"); err != nil {
		return nil, err
	}
	if lm.batchesExhaustedTotal, err = NewCounter(meter,
		"erp_ledger_batches_exhausted_total", "Stock batches emptied by an allocation", "{batches}"); err != nil {
		return nil, err
	}
	if lm.compensationsTotal, err = NewCounter(meter,
		"erp_ledger_compensations_total", "Compensating restores run after a failed reallocation", "{compensations}"); err != nil {
		return nil, err
	}
	if lm.operationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_ledger_operation_duration_seconds",
		Description: "Duration of sale-item ledger operations",
		Unit:        "s",
		Boundaries:  []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}); err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordAllocation records a committed allocation of units across batches.
func (lm *LedgerMetrics) RecordAllocation(ctx context.Context, units int64, exhausted int) {
	if lm == nil {
		return
	}
	lm.allocationsTotal.Inc(ctx)
	lm.unitsAllocatedTotal.Add(ctx, units)
	if exhausted > 0 {
		lm.batchesExhaustedTotal.Add(ctx, int64(exhausted))
	}
}

// RecordInsufficientStock records a rejected allocation.
func (lm *LedgerMetrics) RecordInsufficientStock(ctx context.Context, operation string) {
	if lm == nil {
		return
	}
	lm.insufficientStockTotal.Inc(ctx, AttrOperation.String(operation))
}

// RecordCompensation records a compensation attempt and whether it succeeded.
func (lm *LedgerMetrics) RecordCompensation(ctx context.Context, ok bool) {
	if lm == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeError
	}
	lm.compensationsTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordOperation records the duration and outcome of one ledger operation.
func (lm *LedgerMetrics) RecordOperation(ctx context.Context, operation, outcome string, d time.Duration) {
	if lm == nil {
		return
	}
	lm.operationDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}
