// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

// SerialConnection implements Transport for Bluetooth printers bound to an
// SPP serial device such as /dev/rfcomm0 or COM5
type SerialConnection struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsRecorder
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) *SerialConnection {
	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
	}
}

func (sc *SerialConnection) mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
		StopBits: serial.OneStopBit,
	}

	if sc.config.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch sc.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

// Open opens the serial port
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sc.logger.Debug("Opening serial port", zap.Int("baud_rate", sc.config.BaudRate))

	port, err := serial.Open(sc.config.Port, sc.mode())
	if err != nil {
		sc.stats.failed()
		sc.logger.Warn("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port %s: %w", sc.config.Port, err)
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.connected(true)

	sc.logger.Debug("Serial port opened")
	return nil
}

// Close closes the serial port
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	sc.stats.connected(false)

	if err != nil {
		sc.logger.Warn("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Debug("Serial port closed")
	return nil
}

// IsOpen returns whether the port is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.failed()
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		sc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	if err := sc.port.Drain(); err != nil {
		sc.logger.Debug("Serial drain failed", zap.Error(err))
	}

	sc.stats.wrote(n, time.Since(startTime))
	sc.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return nil
}

// Read reads from the serial port, waiting at most the read timeout
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}

	if err := sc.port.SetReadTimeout(readWindow(ctx, sc.config.Timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	buffer := make([]byte, maxBytes)
	n, err := sc.port.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		sc.stats.failed()
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}

	sc.stats.read(n)
	if n == 0 {
		return buffer[:0], expired(ctx)
	}
	return buffer[:n], nil
}

// Interface returns the interface kind served by this transport
func (sc *SerialConnection) Interface() model.InterfaceKind {
	return model.InterfaceBluetooth
}

// Stats returns a snapshot of the transport statistics
func (sc *SerialConnection) Stats() Stats {
	return sc.stats.snapshot()
}
