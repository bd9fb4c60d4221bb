// pkg/driver/types.go
package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
)

var (
	// ErrInvalidOperation is returned when an operation does not apply to the
	// current state, e.g. opening a printer that is already open
	ErrInvalidOperation = errors.New("invalid operation for printer state")

	// ErrNotOpen is returned by I/O on a printer that is not open
	ErrNotOpen = errors.New("printer not open")

	// ErrUnsupportedInterface is returned for interface kinds no driver serves
	ErrUnsupportedInterface = errors.New("unsupported printer interface")
)

// HealthMetrics contains printer health information
type HealthMetrics struct {
	HealthScore     int           `json:"health_score"` // 0-100
	ResponseTime    time.Duration `json:"response_time"`
	SuccessRate     float64       `json:"success_rate"` // 0.0-1.0
	ErrorCount      int64         `json:"error_count"`
	TotalOperations int64         `json:"total_operations"`
	LastErrorTime   *time.Time    `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time    `json:"last_success_time,omitempty"`
}

// HealthTracker accumulates HealthMetrics for a driver
type HealthTracker struct {
	mu      sync.Mutex
	metrics HealthMetrics
}

// Record updates the metrics with the outcome of one operation
func (h *HealthTracker) Record(responseTime time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := &h.metrics
	m.TotalOperations++
	m.ResponseTime = responseTime

	now := time.Now()
	if err != nil {
		m.ErrorCount++
		m.LastErrorTime = &now
	} else {
		m.LastSuccessTime = &now
	}
	m.SuccessRate = float64(m.TotalOperations-m.ErrorCount) / float64(m.TotalOperations)

	m.HealthScore = int(m.SuccessRate * 100)
	if responseTime > 5*time.Second {
		m.HealthScore -= 10
	}
	if m.HealthScore < 0 {
		m.HealthScore = 0
	}
}

// Snapshot returns a copy of the current metrics
func (h *HealthTracker) Snapshot() HealthMetrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics
}

// Unsupported returns a Printer whose every operation fails with
// ErrUnsupportedInterface. It lets session creation stay infallible for keys
// no driver is registered for.
func Unsupported(key model.ConnectionKey) Printer {
	return unsupported{key: key}
}

type unsupported struct {
	key model.ConnectionKey
}

func (u unsupported) Open(context.Context) error  { return ErrUnsupportedInterface }
func (u unsupported) Close(context.Context) error { return nil }
func (u unsupported) IsOpen() bool                { return false }
func (u unsupported) Print(context.Context, *document.Sequence) error {
	return ErrUnsupportedInterface
}
func (u unsupported) PrintRaw(context.Context, []byte) error { return ErrUnsupportedInterface }
func (u unsupported) Status(context.Context) (*model.PrinterStatus, error) {
	return nil, ErrUnsupportedInterface
}
func (u unsupported) SetInputHandler(InputHandler) {}
func (u unsupported) SetDelegate(Delegate)         {}
func (u unsupported) Key() model.ConnectionKey     { return u.key }
func (u unsupported) HealthMetrics() HealthMetrics { return HealthMetrics{} }
