// internal/driver/registry.go
package driver

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"printer-bridge/internal/model"
	"printer-bridge/pkg/driver"
)

// Factory creates the driver handle for one connection key. It must not do
// I/O; connections are established by Printer.Open.
type Factory func(key model.ConnectionKey, logger *zap.Logger) driver.Printer

// Registry manages driver registration per interface kind
type Registry struct {
	drivers map[model.InterfaceKind]Factory
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		drivers: make(map[model.InterfaceKind]Factory),
		logger:  logger,
	}
}

// Register registers a driver factory for an interface kind
func (r *Registry) Register(kind model.InterfaceKind, name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[kind] = factory
	r.logger.Info("Driver registered",
		zap.String("interface", string(kind)),
		zap.String("driver", name),
	)
}

// Create returns a driver handle for key
func (r *Registry) Create(key model.ConnectionKey) (driver.Printer, error) {
	r.mu.RLock()
	factory, exists := r.drivers[key.Interface]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", driver.ErrUnsupportedInterface, key.Interface)
	}
	return factory(key, r.logger), nil
}

// NewPrinter is Create for callers that cannot handle an error: keys without
// a registered driver get a handle that fails every operation.
func (r *Registry) NewPrinter(key model.ConnectionKey) driver.Printer {
	p, err := r.Create(key)
	if err != nil {
		r.logger.Warn("No driver for printer", zap.String("connection_key", key.String()), zap.Error(err))
		return driver.Unsupported(key)
	}
	return p
}

// IsSupported checks if an interface kind has a driver
func (r *Registry) IsSupported(kind model.InterfaceKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.drivers[kind]
	return exists
}

// ListInterfaces returns all interface kinds with a registered driver
func (r *Registry) ListInterfaces() []model.InterfaceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]model.InterfaceKind, 0, len(r.drivers))
	for kind := range r.drivers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
