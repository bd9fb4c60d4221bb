// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"printer-bridge/internal/config"
	"printer-bridge/internal/model"
)

// Factory creates the transport that reaches the printer behind key
type Factory func(key model.ConnectionKey) (Transport, error)

// NewFactory returns a Factory building transports from the configured defaults
func NewFactory(transport config.TransportConfig, usbVendorIDs []string, logger *zap.Logger) (Factory, error) {
	vendorIDs := make([]uint16, 0, len(usbVendorIDs))
	for _, raw := range usbVendorIDs {
		id, err := ParseHexID(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid USB vendor id %q: %w", raw, err)
		}
		vendorIDs = append(vendorIDs, id)
	}

	return func(key model.ConnectionKey) (Transport, error) {
		return CreateTransport(key, transport, vendorIDs, logger)
	}, nil
}

// CreateTransport creates a transport for the key's interface kind
func CreateTransport(key model.ConnectionKey, transport config.TransportConfig, usbVendorIDs []uint16, logger *zap.Logger) (Transport, error) {
	switch key.Interface {
	case model.InterfaceLAN:
		return createTCPTransport(key.Identifier, transport.TCP, logger)
	case model.InterfaceUSB:
		return createUSBTransport(key.Identifier, transport.USB, usbVendorIDs, logger)
	case model.InterfaceBluetooth, model.InterfaceBluetoothLE:
		return createSerialTransport(key.Identifier, transport.Serial, logger)
	default:
		return nil, fmt.Errorf("unsupported interface: %s", key.Interface)
	}
}

// ValidateIdentifier checks that key's identifier is well formed for its interface
func ValidateIdentifier(key model.ConnectionKey) error {
	switch key.Interface {
	case model.InterfaceLAN:
		_, _, err := ParseTCPIdentifier(key.Identifier, 9100)
		return err
	case model.InterfaceUSB:
		_, err := ParseUSBIdentifier(key.Identifier)
		return err
	case model.InterfaceBluetooth, model.InterfaceBluetoothLE:
		if strings.TrimSpace(key.Identifier) == "" {
			return fmt.Errorf("serial port is required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported interface: %s", key.Interface)
	}
}

// createTCPTransport creates a LAN transport
func createTCPTransport(identifier string, cfg config.TCPTransportConfig, logger *zap.Logger) (Transport, error) {
	defaultPort := cfg.Port
	if defaultPort == 0 {
		defaultPort = 9100
	}

	host, port, err := ParseTCPIdentifier(identifier, defaultPort)
	if err != nil {
		return nil, err
	}

	tcpConfig := &TCPConfig{
		Host:           host,
		Port:           port,
		KeepAlive:      cfg.KeepAlive,
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
	}

	logger.Debug("Creating TCP transport",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
	)

	return NewTCPConnection(tcpConfig, logger), nil
}

// createUSBTransport creates a USB transport
func createUSBTransport(identifier string, cfg config.USBTransportConfig, vendorIDs []uint16, logger *zap.Logger) (Transport, error) {
	usbConfig, err := ParseUSBIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	usbConfig.VendorIDs = vendorIDs
	usbConfig.Timeout = cfg.Timeout
	usbConfig.ReadSize = cfg.BulkTransferSize

	logger.Debug("Creating USB transport",
		zap.String("identifier", identifier),
		zap.Int("vendor_filters", len(vendorIDs)),
	)

	return NewUSBConnection(usbConfig, logger), nil
}

// createSerialTransport creates a Bluetooth SPP transport
func createSerialTransport(identifier string, cfg config.SerialTransportConfig, logger *zap.Logger) (Transport, error) {
	port := strings.TrimSpace(identifier)
	if port == "" {
		return nil, fmt.Errorf("serial port is required")
	}

	serialConfig := &SerialConfig{
		Port:     port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	}
	if serialConfig.BaudRate == 0 {
		serialConfig.BaudRate = 115200
	}
	if serialConfig.DataBits == 0 {
		serialConfig.DataBits = 8
	}

	logger.Debug("Creating serial transport",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger), nil
}

// ParseTCPIdentifier splits host[:port]; bracketed IPv6 literals are accepted
func ParseTCPIdentifier(identifier string, defaultPort int) (string, int, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", 0, fmt.Errorf("LAN identifier is required")
	}

	host, portText, err := net.SplitHostPort(identifier)
	if err != nil {
		// No port, or a bare IPv6 address
		host = strings.Trim(identifier, "[]")
		return host, defaultPort, nil
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid LAN port %q", portText)
	}
	if host == "" {
		return "", 0, fmt.Errorf("LAN host is required")
	}
	return host, port, nil
}

// ParseUSBIdentifier accepts "vvvv:pppp", "vvvv:pppp:serial" or a bare serial number
func ParseUSBIdentifier(identifier string) (*USBConfig, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("USB identifier is required")
	}

	parts := strings.SplitN(identifier, ":", 3)
	if len(parts) == 1 {
		return &USBConfig{SerialNumber: identifier}, nil
	}

	vendorID, err := ParseHexID(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid USB vendor id %q: %w", parts[0], err)
	}
	productID, err := ParseHexID(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid USB product id %q: %w", parts[1], err)
	}

	cfg := &USBConfig{VendorID: vendorID, ProductID: productID}
	if len(parts) == 3 {
		cfg.SerialNumber = parts[2]
	}
	return cfg, nil
}

// ParseHexID parses hex ID string (0x1234 or 1234)
func ParseHexID(hexStr string) (uint16, error) {
	hexStr = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexStr)), "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}
