// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
	"printer-bridge/internal/protocol"
)

// USB printer device class
const usbClassPrinter = 7

// deviceInfo is what the scanner needs from one enumerated device
type deviceInfo struct {
	Vendor       gousb.ID
	Product      gousb.ID
	ProductName  string
	Manufacturer string
	SerialNumber string
}

// Config for the USB scanner
type Config struct {
	// VendorIDs are hex vendor ids whose devices are always examined
	VendorIDs []string
	Debug     bool
}

// Scanner finds USB printers from known vendors or with the printer class
type Scanner struct {
	vendors   map[gousb.ID]bool
	config    Config
	enumerate func(ctx context.Context) ([]deviceInfo, error)
	logger    *zap.Logger
}

// NewScanner creates a USB scanner backed by libusb
func NewScanner(config Config, logger *zap.Logger) *Scanner {
	s := &Scanner{
		vendors: make(map[gousb.ID]bool),
		config:  config,
		logger:  logger.With(zap.String("scanner", "usb")),
	}
	for _, raw := range config.VendorIDs {
		vid, err := protocol.ParseHexID(raw)
		if err != nil {
			s.logger.Warn("Ignoring invalid USB vendor id", zap.String("vendor_id", raw), zap.Error(err))
			continue
		}
		s.vendors[gousb.ID(vid)] = true
	}
	s.enumerate = s.enumerateLibUSB
	return s
}

// Interface returns the kind this scanner covers
func (s *Scanner) Interface() model.InterfaceKind {
	return model.InterfaceUSB
}

// IsAvailable checks if USB scanning is supported on this system
func (s *Scanner) IsAvailable() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		return true
	default:
		s.logger.Warn("USB scanning support unknown for OS", zap.String("os", runtime.GOOS))
		return false
	}
}

// Scan enumerates the bus once and reports every matching printer
func (s *Scanner) Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error {
	startTime := time.Now()
	s.logger.Info("Starting USB device scan")

	devices, err := s.enumerate(ctx)
	if err != nil {
		return fmt.Errorf("device enumeration failed: %w", err)
	}

	count := 0
	for _, info := range devices {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		found(s.printerFor(info))
		count++
	}

	s.logger.Info("USB scan completed",
		zap.Int("devices_found", count),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return nil
}

// shouldExamineDevice keeps known vendors and anything with the printer class
func (s *Scanner) shouldExamineDevice(desc *gousb.DeviceDesc) bool {
	if s.vendors[desc.Vendor] {
		return true
	}
	if desc.Class == usbClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == usbClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// printerFor builds the result; the identifier matches what the USB
// transport accepts
func (s *Scanner) printerFor(info deviceInfo) model.DiscoveredPrinter {
	identifier := fmt.Sprintf("%04x:%04x", uint16(info.Vendor), uint16(info.Product))
	if info.SerialNumber != "" {
		identifier += ":" + info.SerialNumber
	}
	return model.DiscoveredPrinter{
		Model:      model.MatchPrinterModel(info.Manufacturer + " " + info.ProductName),
		Identifier: identifier,
		Interface:  model.InterfaceUSB,
	}
}

func (s *Scanner) enumerateLibUSB(ctx context.Context) ([]deviceInfo, error) {
	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()
	if s.config.Debug {
		usbCtx.Debug(3)
	}

	devices, err := usbCtx.OpenDevices(s.shouldExamineDevice)
	defer s.closeAllDevices(devices)
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if err != nil {
		// Some devices could not be opened, usually for lack of permission
		s.logger.Warn("Some USB devices could not be opened", zap.Error(err))
	}

	infos := make([]deviceInfo, 0, len(devices))
	for _, device := range devices {
		if ctx.Err() != nil {
			return infos, ctx.Err()
		}
		infos = append(infos, deviceInfo{
			Vendor:       device.Desc.Vendor,
			Product:      device.Desc.Product,
			ProductName:  s.descriptor(device.Product),
			Manufacturer: s.descriptor(device.Manufacturer),
			SerialNumber: s.descriptor(device.SerialNumber),
		})
	}
	return infos, nil
}

// descriptor reads an optional string descriptor
func (s *Scanner) descriptor(read func() (string, error)) string {
	value, err := read()
	if err != nil {
		s.logger.Debug("Failed to read string descriptor", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(value)
}

func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			s.logger.Warn("Failed to close USB device",
				zap.Int("device_index", i),
				zap.Error(err),
			)
		}
	}
}
