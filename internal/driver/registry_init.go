// internal/driver/registry_init.go
package driver

import (
	"go.uber.org/zap"

	"printer-bridge/internal/driver/escpos"
	"printer-bridge/internal/model"
	"printer-bridge/internal/protocol"
	"printer-bridge/pkg/driver"
)

// RegisterDefaultDrivers registers the ESC/POS driver for every transport
func RegisterDefaultDrivers(registry *Registry, transports protocol.Factory, opts escpos.Options, logger *zap.Logger) {
	factory := func(key model.ConnectionKey, logger *zap.Logger) driver.Printer {
		return escpos.New(key, transports, opts, logger)
	}

	kinds := []model.InterfaceKind{
		model.InterfaceLAN,
		model.InterfaceUSB,
		model.InterfaceBluetooth,
		model.InterfaceBluetoothLE,
	}
	for _, kind := range kinds {
		registry.Register(kind, "escpos", factory)
	}

	logger.Info("ESC/POS printer drivers registered",
		zap.Int("interfaces", len(kinds)),
	)
}
