// internal/session/registry.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"printer-bridge/internal/callback"
	"printer-bridge/internal/model"
	"printer-bridge/pkg/driver"
)

// PrinterFactory builds the driver handle for a new session. It must not fail
// or do I/O.
type PrinterFactory func(key model.ConnectionKey) driver.Printer

// Registry owns one session per connection key. Sessions are created on first
// use and only removed by CloseAll.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[model.ConnectionKey]*Session
	newPrinter PrinterFactory
	callbacks  *callback.Registry
	logger     *zap.Logger
}

// NewRegistry creates an empty session registry
func NewRegistry(newPrinter PrinterFactory, callbacks *callback.Registry, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:   make(map[model.ConnectionKey]*Session),
		newPrinter: newPrinter,
		callbacks:  callbacks,
		logger:     logger,
	}
}

// Resolve returns the session for key, creating it if needed. Concurrent
// callers for the same new key all get the same session.
func (r *Registry) Resolve(key model.ConnectionKey) *Session {
	r.mu.RLock()
	s, ok := r.sessions[key]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s
	}

	s = newSession(key, r.newPrinter(key), r.logger)
	r.sessions[key] = s
	r.logger.Debug("Session created",
		zap.String("connection_key", key.String()),
		zap.Bool("persistent", s.persistent),
	)
	return s
}

// Get returns the session for key without creating it
func (r *Registry) Get(key model.ConnectionKey) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Len returns the number of sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns all sessions ordered by key
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].key.String() < out[j].key.String()
	})
	return out
}

// CloseAll tears every session down: subscriptions are dropped, their
// callback ids unregistered and open connections closed. The registry is
// empty afterwards.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[model.ConnectionKey]*Session)
	r.mu.Unlock()

	var errs []error
	for key, s := range sessions {
		if err := r.teardown(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	r.logger.Info("All printer sessions closed",
		zap.Int("sessions", len(sessions)),
		zap.Int("close_failures", len(errs)),
	)
	return errors.Join(errs...)
}

func (r *Registry) teardown(ctx context.Context, s *Session) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.printer.SetInputHandler(nil)
	s.printer.SetDelegate(nil)

	for _, id := range []string{s.ListenerID(), s.MonitorID()} {
		if id != "" {
			r.callbacks.Unregister(id)
		}
	}
	s.setListener("")
	s.setMonitor("")

	s.setState(StateClosing, nil)
	err := s.printer.Close(ctx)
	s.setState(StateClosed, err)
	if err != nil {
		s.logger.LogConnection("close", err)
	}
	return err
}
