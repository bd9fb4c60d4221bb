// internal/session/session.go
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/model"
	"printer-bridge/internal/utils"
	"printer-bridge/pkg/driver"
)

// State is the lifecycle state of a session
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateOpen    State = "open"
	StateClosing State = "closing"
	StateError   State = "error"
)

// Session is the live connection context for one printer. All controller
// operations on a session hold its operation lock, so calls against one key
// run one at a time.
type Session struct {
	key        model.ConnectionKey
	persistent bool
	printer    driver.Printer
	logger     *utils.PrinterLogger

	op sync.Mutex

	mu           sync.RWMutex
	state        State
	listenerID   string
	monitorID    string
	lastError    string
	lastActivity time.Time
}

func newSession(key model.ConnectionKey, printer driver.Printer, logger *zap.Logger) *Session {
	return &Session{
		key:        key,
		persistent: key.Interface.IsPersistent(),
		printer:    printer,
		logger:     utils.NewPrinterLogger(logger, key.String(), string(key.Interface)),
		state:      StateClosed,
	}
}

// Key returns the connection key
func (s *Session) Key() model.ConnectionKey { return s.key }

// Persistent reports whether the session stays open between operations
func (s *Session) Persistent() bool { return s.persistent }

// Printer returns the driver handle
func (s *Session) Printer() driver.Printer { return s.printer }

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.lastActivity = time.Now()
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if prev != state {
		s.logger.Debug("Session state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(state)),
		)
	}
}

// ListenerID returns the callback id of the active input listener
func (s *Session) ListenerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listenerID
}

// MonitorID returns the callback id of the active status delegate
func (s *Session) MonitorID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitorID
}

func (s *Session) setListener(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenerID = id
}

func (s *Session) setMonitor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitorID = id
}

// Snapshot is a point in time view of a session for introspection
type Snapshot struct {
	Key          string               `json:"key"`
	Interface    model.InterfaceKind  `json:"interface"`
	Identifier   string               `json:"identifier"`
	State        State                `json:"state"`
	Persistent   bool                 `json:"persistent"`
	Listening    bool                 `json:"listening"`
	Monitoring   bool                 `json:"monitoring"`
	LastError    string               `json:"last_error,omitempty"`
	LastActivity *time.Time           `json:"last_activity,omitempty"`
	Health       driver.HealthMetrics `json:"health"`
}

// Snapshot returns the session's introspection view
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Key:        s.key.String(),
		Interface:  s.key.Interface,
		Identifier: s.key.Identifier,
		State:      s.state,
		Persistent: s.persistent,
		Listening:  s.listenerID != "",
		Monitoring: s.monitorID != "",
		LastError:  s.lastError,
		Health:     s.printer.HealthMetrics(),
	}
	if !s.lastActivity.IsZero() {
		at := s.lastActivity
		snap.LastActivity = &at
	}
	return snap
}
