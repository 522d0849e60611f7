package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/fulfillment"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// recordingHandler collects the events it receives
type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
	panics bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

func newTestEvent(eventType string) shared.DomainEvent {
	base := shared.NewBaseDomainEvent(eventType, fulfillment.AggregateTypeOrder, uuid.New())
	return &base
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to type-specific handlers only", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		pickHandler := &recordingHandler{types: []string{fulfillment.EventTypePickRequestCreated}}
		shipHandler := &recordingHandler{types: []string{fulfillment.EventTypeShipmentCreated}}
		bus.Subscribe(pickHandler)
		bus.Subscribe(shipHandler)

		err := bus.Publish(context.Background(), newTestEvent(fulfillment.EventTypePickRequestCreated))

		require.NoError(t, err)
		assert.Len(t, pickHandler.received(), 1)
		assert.Empty(t, shipHandler.received())
	})

	t.Run("wildcard handler receives every event", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		audit := &recordingHandler{}
		bus.Subscribe(audit)

		err := bus.Publish(context.Background(),
			newTestEvent(inventory.EventTypeStockReserved),
			newTestEvent(fulfillment.EventTypeShipmentCreated),
		)

		require.NoError(t, err)
		assert.Len(t, audit.received(), 2)
	})

	t.Run("failing handler does not fail publication", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{err: errors.New("downstream unavailable")}
		healthy := &recordingHandler{}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(context.Background(), newTestEvent(fulfillment.EventTypeOrderConfirmed))

		require.NoError(t, err)
		assert.Len(t, healthy.received(), 1)
	})

	t.Run("panicking handler is contained", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		bus.Subscribe(&recordingHandler{panics: true})
		healthy := &recordingHandler{}
		bus.Subscribe(healthy)

		require.NotPanics(t, func() {
			err := bus.Publish(context.Background(), newTestEvent(fulfillment.EventTypeOrderConfirmed))
			assert.NoError(t, err)
		})
		assert.Len(t, healthy.received(), 1)
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{fulfillment.EventTypeOrderCompleted}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent(fulfillment.EventTypeOrderCompleted))

	require.NoError(t, err)
	assert.Empty(t, handler.received())
}

func TestActivityLogHandler(t *testing.T) {
	handler := NewActivityLogHandler(zap.NewNop())

	assert.Empty(t, handler.EventTypes())
	assert.NoError(t, handler.Handle(context.Background(), newTestEvent(inventory.EventTypeStockReleased)))
}
