package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("AccountBlocked")
	bus.Subscribe(handler)

	event := newTestEvent("AccountBlocked")
	require.NoError(t, bus.Publish(context.Background(), event, newTestEvent("Other")))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_HandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("E")
	failing.err = errors.New("boom")
	panicking := newTestHandler("E")
	panicking.panicWith = "kaboom"
	ok := newTestHandler("E")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(ok)

	assert.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))
	assert.Len(t, ok.getHandled(), 1)
	assert.Equal(t, int64(2), bus.failed.Load())
}

func TestInMemoryEventBus_WildcardAndUnsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	all := newTestHandler()
	bus.Subscribe(all)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Len(t, all.getHandled(), 2)

	bus.Unsubscribe(all)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("E")
	bus.Subscribe(handler)

	require.NoError(t, bus.Stop(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))
	assert.Empty(t, handler.getHandled())

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))
	assert.Len(t, handler.getHandled(), 1)
}
