// internal/discovery/bluetooth/scanner.go
package bluetooth

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

// Config for the bluetooth scanner
type Config struct {
	// PortPatterns are case insensitive substrings matched against the port
	// name and the reported product
	PortPatterns []string
}

// Scanner lists paired bluetooth printers exposed as SPP serial ports
type Scanner struct {
	config    Config
	listPorts func() ([]*enumerator.PortDetails, error)
	logger    *zap.Logger
}

// NewScanner creates a bluetooth scanner over the serial port enumerator
func NewScanner(config Config, logger *zap.Logger) *Scanner {
	if len(config.PortPatterns) == 0 {
		config.PortPatterns = defaultPortPatterns()
	}
	return &Scanner{
		config:    config,
		listPorts: enumerator.GetDetailedPortsList,
		logger:    logger.With(zap.String("scanner", "bluetooth")),
	}
}

func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/dev/cu.Star", "Bluetooth"}
	case "windows":
		return []string{"Bluetooth"}
	default:
		return []string{"rfcomm"}
	}
}

// Interface returns the kind this scanner covers
func (s *Scanner) Interface() model.InterfaceKind {
	return model.InterfaceBluetooth
}

// IsAvailable reports true; serial enumeration works on every platform
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports once and reports those matching a port pattern
func (s *Scanner) Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error {
	s.logger.Info("Starting bluetooth port scan")

	ports, err := s.listPorts()
	if err != nil {
		return fmt.Errorf("failed to get serial ports: %w", err)
	}

	count := 0
	for _, port := range ports {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if port == nil || port.IsUSB || !s.matches(port) {
			continue
		}
		found(model.DiscoveredPrinter{
			Model:      model.MatchPrinterModel(port.Product + " " + port.Name),
			Identifier: port.Name,
			Interface:  model.InterfaceBluetooth,
		})
		count++
	}

	s.logger.Info("Bluetooth scan completed", zap.Int("devices_found", count))
	return nil
}

func (s *Scanner) matches(port *enumerator.PortDetails) bool {
	name := strings.ToLower(port.Name)
	product := strings.ToLower(port.Product)
	for _, pattern := range s.config.PortPatterns {
		p := strings.ToLower(pattern)
		if p != "" && (strings.Contains(name, p) || strings.Contains(product, p)) {
			return true
		}
	}
	return false
}
