// internal/callback/registry.go
package callback

import (
	"sync"

	"printer-bridge/internal/model"
)

// Sink is a destination for push events, typically a WebSocket client
type Sink interface {
	ID() string
	Deliver(event model.Event) error
}

// Registry maps callback correlation ids to sinks
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewRegistry creates an empty callback registry
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]Sink)}
}

// Register binds id to sink, replacing any previous binding
func (r *Registry) Register(id string, sink Sink) {
	if id == "" || sink == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[id] = sink
}

// Unregister removes the binding for id
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, id)
}

// UnregisterSink removes every binding pointing at sink and returns the ids
func (r *Registry) UnregisterSink(sink Sink) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, s := range r.sinks {
		if s.ID() == sink.ID() {
			delete(r.sinks, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Lookup returns the sink bound to id
func (r *Registry) Lookup(id string) (Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[id]
	return s, ok
}

// Len returns the number of bound ids
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
