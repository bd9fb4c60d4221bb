// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
)

// USBConnection implements Transport for USB printers through libusb
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	done     func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", fmt.Sprintf("%04x", config.VendorID)),
			zap.String("product_id", fmt.Sprintf("%04x", config.ProductID)),
			zap.String("serial_number", config.SerialNumber),
		),
	}
}

// Open finds the device, claims its default interface and locates the bulk endpoints
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uc.logger.Debug("Opening USB connection")

	usbCtx := gousb.NewContext()

	device, err := uc.findAndOpenDevice(usbCtx)
	if err != nil {
		usbCtx.Close()
		uc.stats.failed()
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	// The kernel printer driver usually holds the interface
	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Debug("Auto detach not supported", zap.Error(err))
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		usbCtx.Close()
		uc.stats.failed()
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outNum, inNum := bulkEndpoints(intf.Setting)
	if outNum < 0 {
		done()
		device.Close()
		usbCtx.Close()
		uc.stats.failed()
		return fmt.Errorf("no bulk out endpoint on %s", intf)
	}

	outEndpt, err := intf.OutEndpoint(outNum)
	if err != nil {
		done()
		device.Close()
		usbCtx.Close()
		uc.stats.failed()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	var inEndpt *gousb.InEndpoint
	if inNum >= 0 {
		if inEndpt, err = intf.InEndpoint(inNum); err != nil {
			// Status and input are unavailable but printing still works
			uc.logger.Warn("No in endpoint found", zap.Error(err))
		}
	}

	uc.ctx = usbCtx
	uc.device = device
	uc.intf = intf
	uc.done = done
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.isOpen = true
	uc.stats.connected(true)

	uc.logger.Debug("USB connection opened", zap.Int("out_endpoint", outNum), zap.Int("in_endpoint", inNum))
	return nil
}

// Close releases the interface, device and libusb context
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	var errs []error
	if uc.done != nil {
		uc.done()
		uc.done = nil
	}
	if uc.device != nil {
		if err := uc.device.Close(); err != nil {
			errs = append(errs, err)
		}
		uc.device = nil
	}
	if uc.ctx != nil {
		if err := uc.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		uc.ctx = nil
	}

	uc.intf = nil
	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.isOpen = false
	uc.stats.connected(false)

	if err := errors.Join(errs...); err != nil {
		uc.logger.Warn("Failed to close USB connection", zap.Error(err))
		return fmt.Errorf("failed to close USB connection: %w", err)
	}

	uc.logger.Debug("USB connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the bulk out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return ErrNotOpen
	}

	writeCtx := ctx
	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(writeCtx, data)
	if err != nil {
		uc.stats.failed()
		return fmt.Errorf("failed to write to USB device: %w", err)
	}
	if n != len(data) {
		uc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.wrote(n, time.Since(startTime))
	uc.logger.Debug("USB write completed", zap.Int("bytes", n))
	return nil
}

// Read reads from the bulk in endpoint, waiting at most the transfer timeout
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen {
		return nil, ErrNotOpen
	}
	if uc.inEndpt == nil {
		return nil, fmt.Errorf("USB device has no in endpoint")
	}

	if uc.config.ReadSize > 0 && maxBytes < uc.config.ReadSize {
		maxBytes = uc.config.ReadSize
	}

	readCtx, cancel := context.WithTimeout(ctx, readWindow(ctx, uc.config.Timeout))
	defer cancel()

	buffer := make([]byte, maxBytes)
	n, err := uc.inEndpt.ReadContext(readCtx, buffer)
	if err != nil {
		if errors.Is(err, gousb.TransferTimedOut) || errors.Is(err, gousb.TransferCancelled) || readCtx.Err() != nil {
			return buffer[:n], expired(ctx)
		}
		uc.stats.failed()
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}

	uc.stats.read(n)
	return buffer[:n], nil
}

// Interface returns the interface kind served by this transport
func (uc *USBConnection) Interface() model.InterfaceKind {
	return model.InterfaceUSB
}

// Stats returns a snapshot of the transport statistics
func (uc *USBConnection) Stats() Stats {
	return uc.stats.snapshot()
}

// findAndOpenDevice opens the first device matching the configured selector
func (uc *USBConnection) findAndOpenDevice(usbCtx *gousb.Context) (*gousb.Device, error) {
	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uc.matchesDescriptor(desc)
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	var selected *gousb.Device
	for _, device := range devices {
		if selected == nil && uc.matchesSerial(device) {
			selected = device
			continue
		}
		device.Close()
	}

	if selected == nil {
		return nil, fmt.Errorf("USB printer not found (VID: %04x, PID: %04x, serial: %q)",
			uc.config.VendorID, uc.config.ProductID, uc.config.SerialNumber)
	}
	return selected, nil
}

func (uc *USBConnection) matchesDescriptor(desc *gousb.DeviceDesc) bool {
	if uc.config.VendorID != 0 {
		if desc.Vendor != gousb.ID(uc.config.VendorID) {
			return false
		}
		return uc.config.ProductID == 0 || desc.Product == gousb.ID(uc.config.ProductID)
	}

	for _, vid := range uc.config.VendorIDs {
		if desc.Vendor == gousb.ID(vid) {
			return true
		}
	}
	return false
}

func (uc *USBConnection) matchesSerial(device *gousb.Device) bool {
	if uc.config.SerialNumber == "" {
		return true
	}
	serialNumber, err := device.SerialNumber()
	if err != nil {
		return false
	}
	return serialNumber == uc.config.SerialNumber
}

// bulkEndpoints returns the lowest bulk out and in endpoint numbers, -1 when missing
func bulkEndpoints(setting gousb.InterfaceSetting) (out, in int) {
	out, in = -1, -1
	for _, ep := range setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if out < 0 || ep.Number < out {
				out = ep.Number
			}
		case gousb.EndpointDirectionIn:
			if in < 0 || ep.Number < in {
				in = ep.Number
			}
		}
	}
	return out, in
}
