package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/inventory-ledger/internal/domain/inventory"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testHandler records what it handles
type testHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func exhausted() *inventory.StockBatchExhaustedEvent {
	return inventory.NewStockBatchExhaustedEvent(uuid.New(), uuid.New(), uuid.New())
}

func received(t *testing.T) *inventory.StockBatchReceivedEvent {
	t.Helper()
	b, err := inventory.NewStockBatch(uuid.New(), 1, 1, 0, 0, shared.Now(), nil)
	require.NoError(t, err)
	return inventory.NewStockBatchReceivedEvent(b)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	onExhausted := newTestHandler(inventory.EventTypeStockBatchExhausted)
	everything := newTestHandler()
	bus.Subscribe(onExhausted)
	bus.Subscribe(everything)

	require.NoError(t, bus.Publish(context.Background(), exhausted(), received(t), exhausted()))

	assert.Equal(t, 2, onExhausted.count())
	assert.Equal(t, 3, everything.count())
	assert.Equal(t, int64(5), bus.Delivered())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler(inventory.EventTypeStockBatchExhausted)
	bus.Subscribe(h, inventory.EventTypeStockBatchReceived)

	require.NoError(t, bus.Publish(context.Background(), exhausted(), received(t)))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	boom := errors.New("notifier down")
	failing := newTestHandler(inventory.EventTypeStockBatchExhausted)
	failing.err = boom
	panicking := newTestHandler(inventory.EventTypeStockBatchExhausted)
	panicking.panicWith = "nil map"
	healthy := newTestHandler(inventory.EventTypeStockBatchExhausted)

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), exhausted())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panicked")

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(1), bus.Delivered())
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler(inventory.EventTypeStockBatchExhausted)
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), exhausted()))
	assert.Zero(t, h.count())
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()
	h := newTestHandler()
	bus.Subscribe(h)

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(ctx, exhausted()), ErrBusStopped)
	assert.Zero(t, h.count())

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, exhausted()))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler()
	bus.Subscribe(h)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), exhausted())
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, h.count())
}
