// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

// TCPConnection implements Transport for LAN printers on a raw port
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsRecorder
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) *TCPConnection {
	return &TCPConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

func (tc *TCPConnection) address() string {
	return net.JoinHostPort(tc.config.Host, strconv.Itoa(tc.config.Port))
}

// Open opens the TCP connection
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Debug("Opening TCP connection")

	dialer := &net.Dialer{Timeout: tc.config.ConnectTimeout}
	if tc.config.KeepAlive {
		dialer.KeepAlive = 30 * time.Second
	}

	conn, err := dialer.DialContext(ctx, "tcp", tc.address())
	if err != nil {
		tc.stats.failed()
		tc.logger.Warn("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", tc.address(), err)
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.connected(true)

	tc.logger.Debug("TCP connection opened")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.isOpen = false
	tc.stats.connected(false)

	if err != nil {
		tc.logger.Warn("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Debug("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return ErrNotOpen
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Time{}
	if tc.config.WriteTimeout > 0 {
		deadline = time.Now().Add(tc.config.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = tc.conn.SetWriteDeadline(deadline)

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.failed()
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}
	if n != len(data) {
		tc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tc.stats.wrote(n, time.Since(startTime))
	tc.logger.Debug("TCP write completed", zap.Int("bytes", n))
	return nil
}

// Read reads whatever the printer has sent, waiting at most the read timeout
func (tc *TCPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, ErrNotOpen
	}

	_ = tc.conn.SetReadDeadline(time.Now().Add(readWindow(ctx, tc.config.ReadTimeout)))

	buffer := make([]byte, maxBytes)
	n, err := tc.conn.Read(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return buffer[:n], expired(ctx)
		}
		tc.stats.failed()
		return nil, fmt.Errorf("failed to read from TCP connection: %w", err)
	}

	tc.stats.read(n)
	return buffer[:n], nil
}

// Interface returns the interface kind served by this transport
func (tc *TCPConnection) Interface() model.InterfaceKind {
	return model.InterfaceLAN
}

// Stats returns a snapshot of the transport statistics
func (tc *TCPConnection) Stats() Stats {
	return tc.stats.snapshot()
}
