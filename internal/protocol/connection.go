// internal/protocol/connection.go
package protocol

import "time"

// SerialConfig represents a Bluetooth SPP serial port
type SerialConfig struct {
	Port     string        `json:"port"`
	BaudRate int           `json:"baud_rate"`
	DataBits int           `json:"data_bits"`
	StopBits int           `json:"stop_bits"`
	Parity   string        `json:"parity"`
	Timeout  time.Duration `json:"timeout"`
}

// USBConfig selects a USB printer by vendor/product and optionally serial number
type USBConfig struct {
	VendorID     uint16        `json:"vendor_id"`
	ProductID    uint16        `json:"product_id"`
	SerialNumber string        `json:"serial_number"`
	VendorIDs    []uint16      `json:"vendor_ids"`
	Timeout      time.Duration `json:"timeout"`
	ReadSize     int           `json:"read_size"`
}

// TCPConfig represents a LAN printer raw port connection
type TCPConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	KeepAlive      bool          `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
}
