// internal/callback/dispatcher.go
package callback

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

// Emitter is what producers of push events depend on
type Emitter interface {
	Emit(event model.Event)
}

// Dispatcher delivers push events to the sink registered for their
// correlation id. Emit never blocks: when the buffer is full the event is
// dropped and logged.
type Dispatcher struct {
	registry *Registry
	events   chan model.Event
	logger   *zap.Logger

	dropped   atomic.Int64
	delivered atomic.Int64

	startOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given buffer size
func NewDispatcher(registry *Registry, bufferSize int, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Dispatcher{
		registry: registry,
		events:   make(chan model.Event, bufferSize),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the delivery loop until ctx is cancelled. Events still buffered
// at that point are delivered before Start returns.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		defer close(d.done)
		for {
			select {
			case event := <-d.events:
				d.deliver(event)
			case <-ctx.Done():
				d.drain()
				return
			}
		}
	})
}

// Done is closed when the delivery loop has stopped
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Emit queues an event for delivery
func (d *Dispatcher) Emit(event model.Event) {
	select {
	case d.events <- event:
	default:
		d.dropped.Add(1)
		d.logger.Warn("Event buffer full, dropping event",
			zap.String("callback_id", event.GUID),
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Stats returns delivered and dropped event counts
func (d *Dispatcher) Stats() (delivered, dropped int64) {
	return d.delivered.Load(), d.dropped.Load()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(event model.Event) {
	sink, ok := d.registry.Lookup(event.GUID)
	if !ok {
		d.dropped.Add(1)
		d.logger.Debug("No sink for callback, dropping event",
			zap.String("callback_id", event.GUID),
			zap.String("event_type", string(event.Type)),
		)
		return
	}

	if err := sink.Deliver(event); err != nil {
		d.dropped.Add(1)
		d.logger.Warn("Failed to deliver event",
			zap.String("callback_id", event.GUID),
			zap.String("event_type", string(event.Type)),
			zap.String("sink", sink.ID()),
			zap.Error(err),
		)
		return
	}
	d.delivered.Add(1)
}
