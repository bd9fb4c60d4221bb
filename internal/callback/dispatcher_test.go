package callback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"printer-bridge/internal/model"
)

type fakeSink struct {
	id     string
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (s *fakeSink) ID() string { return s.id }

func (s *fakeSink) Deliver(event model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSink) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

func TestRegistryBindings(t *testing.T) {
	r := NewRegistry()
	a := &fakeSink{id: "a"}
	b := &fakeSink{id: "b"}

	r.Register("cb-1", a)
	r.Register("cb-2", a)
	r.Register("cb-3", b)
	r.Register("", a)
	assert.Equal(t, 3, r.Len())

	sink, ok := r.Lookup("cb-3")
	require.True(t, ok)
	assert.Equal(t, "b", sink.ID())

	removed := r.UnregisterSink(a)
	assert.ElementsMatch(t, []string{"cb-1", "cb-2"}, removed)
	assert.Equal(t, 1, r.Len())

	r.Unregister("cb-3")
	_, ok = r.Lookup("cb-3")
	assert.False(t, ok)
}

func TestDispatcherDeliversByCorrelationID(t *testing.T) {
	r := NewRegistry()
	a := &fakeSink{id: "a"}
	b := &fakeSink{id: "b"}
	r.Register("cb-a", a)
	r.Register("cb-b", b)

	d := NewDispatcher(r, 10, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	d.Emit(model.NewEvent("cb-a", model.EventDataReceived, model.DataReceivedData([]byte("1"))))
	d.Emit(model.NewEvent("cb-b", model.EventOnReady, nil))
	d.Emit(model.NewEvent("cb-a", model.EventDataReceived, model.DataReceivedData([]byte("2"))))
	d.Emit(model.NewEvent("cb-unknown", model.EventOnReady, nil))

	require.Eventually(t, func() bool { return len(a.Events()) == 2 && len(b.Events()) == 1 },
		time.Second, 5*time.Millisecond)

	events := a.Events()
	assert.Equal(t, "1", events[0].Data["string"])
	assert.Equal(t, "2", events[1].Data["string"])

	cancel()
	<-d.Done()

	delivered, dropped := d.Stats()
	assert.Equal(t, int64(3), delivered)
	assert.Equal(t, int64(1), dropped)
}

func TestDispatcherDropsOnOverflow(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRegistry()
	d := NewDispatcher(r, 1, zap.New(core))

	// Not started, so the second event finds the buffer full
	d.Emit(model.NewEvent("cb", model.EventMonitor, nil))
	d.Emit(model.NewEvent("cb", model.EventMonitor, nil))

	_, dropped := d.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, 1, logs.FilterMessage("Event buffer full, dropping event").Len())
}

func TestDispatcherDrainsOnStop(t *testing.T) {
	r := NewRegistry()
	sink := &fakeSink{id: "s"}
	r.Register("cb", sink)
	d := NewDispatcher(r, 10, zap.NewNop())

	d.Emit(model.NewEvent("cb", model.EventOnError, nil))
	d.Emit(model.NewEvent("cb", model.EventOnError, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	assert.Len(t, sink.Events(), 2)
}

func TestDispatcherCountsFailedDelivery(t *testing.T) {
	r := NewRegistry()
	r.Register("cb", &fakeSink{id: "s", err: errors.New("closed")})
	d := NewDispatcher(r, 10, zap.NewNop())

	d.Emit(model.NewEvent("cb", model.EventOnError, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)

	delivered, dropped := d.Stats()
	assert.Equal(t, int64(0), delivered)
	assert.Equal(t, int64(1), dropped)
}
