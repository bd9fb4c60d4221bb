// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"sync"
	"time"

	"printer-bridge/internal/model"
)

// ErrNotOpen is returned by I/O on a closed transport
var ErrNotOpen = errors.New("transport not open")

// Transport is a byte stream to one printer
type Transport interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication. Read returns an empty slice when nothing arrived
	// before the read timeout or ctx deadline.
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Transport information
	Interface() model.InterfaceKind
	Stats() Stats
}

// Stats provides transport level statistics
type Stats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder is shared by the transports. Reads and writes may run
// concurrently under the transport's read lock so it has its own mutex.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) connected(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.IsConnected = open
	if open {
		r.stats.LastActivity = time.Now()
	}
}

func (r *statsRecorder) wrote(n int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	if r.stats.AverageLatency == 0 {
		r.stats.AverageLatency = latency
	} else {
		r.stats.AverageLatency = (r.stats.AverageLatency + latency) / 2
	}
}

func (r *statsRecorder) read(n int) {
	if n == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) failed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// readWindow returns how long a single read may block: the configured
// timeout, shortened to the ctx deadline when that comes first
func readWindow(ctx context.Context, timeout time.Duration) time.Duration {
	window := timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); window <= 0 || until < window {
			window = until
		}
	}
	if window <= 0 {
		window = time.Millisecond
	}
	return window
}

// expired reports a context whose deadline has passed even if its timer has
// not fired yet, so callers that slept until the deadline see the error
func expired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}
