// internal/discovery/scanner.go
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/model"
)

// MessageBluetoothPermissionDenied is returned when a bluetooth scan is not allowed
const MessageBluetoothPermissionDenied = "Bluetooth permission denied"

// Scanner finds printers on one interface kind
type Scanner interface {
	// Interface returns the kind this scanner covers
	Interface() model.InterfaceKind
	// Scan reports every printer it finds through found until ctx is done or
	// the scan is exhausted. found may be called from several goroutines.
	Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error
	// IsAvailable reports whether the scanner can run on this host
	IsAvailable() bool
}

// PermissionFunc returns an error when the process may not use an interface
type PermissionFunc func() error

// Request describes one discovery call
type Request struct {
	Interfaces []string
	Timeout    time.Duration
	// CallbackID receives printerFound events when set
	CallbackID string
}

// Options configures the discovery manager
type Options struct {
	DefaultTimeout time.Duration
	MaxTimeout     time.Duration
	ResultCap      int
	// BluetoothPermission is checked before any scanner runs when bluetooth
	// is requested. Nil means granted.
	BluetoothPermission PermissionFunc
}

// Manager runs the scanners for a discovery request and aggregates results
type Manager struct {
	mu       sync.RWMutex
	scanners map[model.InterfaceKind]Scanner
	emitter  callback.Emitter
	opts     Options
	logger   *zap.Logger
}

// NewManager creates a discovery manager without scanners
func NewManager(emitter callback.Emitter, opts Options, logger *zap.Logger) *Manager {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 10 * time.Second
	}
	if opts.MaxTimeout < opts.DefaultTimeout {
		opts.MaxTimeout = opts.DefaultTimeout
	}
	return &Manager{
		scanners: make(map[model.InterfaceKind]Scanner),
		emitter:  emitter,
		opts:     opts,
		logger:   logger,
	}
}

// RegisterScanner registers the scanner for its interface kind
func (m *Manager) RegisterScanner(scanner Scanner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanners[scanner.Interface()] = scanner
	m.logger.Info("Scanner registered", zap.String("interface", string(scanner.Interface())))
}

// AvailableInterfaces lists the interface kinds that can be scanned here
func (m *Manager) AvailableInterfaces() []model.InterfaceKind {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var available []model.InterfaceKind
	for _, kind := range []model.InterfaceKind{model.InterfaceLAN, model.InterfaceBluetooth, model.InterfaceUSB} {
		if s, ok := m.scanners[kind]; ok && s.IsAvailable() {
			available = append(available, kind)
		}
	}
	return available
}

// Timeout clamps a requested timeout to the configured bounds. Zero or
// negative means the default.
func (m *Manager) Timeout(requested time.Duration) time.Duration {
	switch {
	case requested <= 0:
		return m.opts.DefaultTimeout
	case requested > m.opts.MaxTimeout:
		return m.opts.MaxTimeout
	default:
		return requested
	}
}

// Find scans the requested interfaces until the timeout elapses and returns
// every distinct printer seen. Unknown interface strings are skipped. A
// denied bluetooth permission fails the whole request before any scan
// starts.
func (m *Manager) Find(ctx context.Context, req Request) ([]model.DiscoveredPrinter, error) {
	kinds := m.classify(req.Interfaces)

	for _, kind := range kinds {
		if kind == model.InterfaceBluetooth && m.opts.BluetoothPermission != nil {
			if err := m.opts.BluetoothPermission(); err != nil {
				m.logger.Warn("Bluetooth discovery refused", zap.Error(err))
				return nil, apperror.Wrap(apperror.CodePermissionDenied, MessageBluetoothPermissionDenied, err)
			}
		}
	}

	timeout := m.Timeout(req.Timeout)
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	m.logger.Info("Discovery started",
		zap.Any("interfaces", kinds),
		zap.Duration("timeout", timeout),
		zap.Bool("streaming", req.CallbackID != ""),
	)

	results := newResultSet(m.opts.ResultCap)
	found := func(p model.DiscoveredPrinter) {
		if !results.add(p) {
			return
		}
		m.logger.Debug("Printer found",
			zap.String("interface", string(p.Interface)),
			zap.String("identifier", p.Identifier),
			zap.String("model", string(p.Model)),
		)
		if req.CallbackID != "" {
			m.emitter.Emit(model.NewEvent(req.CallbackID, model.EventPrinterFound, model.PrinterFoundData(p)))
		}
	}

	var wg conc.WaitGroup
	for _, kind := range kinds {
		kind := kind // per-iteration copy; go directive is below 1.22
		scanner, ok := m.scanner(kind)
		if !ok || !scanner.IsAvailable() {
			m.logger.Debug("Scanner not available, skipping", zap.String("interface", string(kind)))
			continue
		}
		wg.Go(func() {
			if err := scanner.Scan(scanCtx, found); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				m.logger.Error("Scanner failed", zap.String("interface", string(kind)), zap.Error(err))
			}
		})
	}
	wg.Wait()

	// Discovery only finishes when its timeout elapses
	<-scanCtx.Done()

	printers := results.list()
	if err := ctx.Err(); err != nil {
		return printers, apperror.From(err)
	}

	m.logger.Info("Discovery finished",
		zap.Int("printers_found", len(printers)),
		zap.Duration("duration", time.Since(start)),
	)
	return printers, nil
}

func (m *Manager) scanner(kind model.InterfaceKind) (Scanner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scanners[kind]
	return s, ok
}

// classify normalises interface strings, dropping unknown kinds and duplicates
func (m *Manager) classify(interfaces []string) []model.InterfaceKind {
	seen := make(map[model.InterfaceKind]bool)
	var kinds []model.InterfaceKind
	for _, value := range interfaces {
		kind := model.ParseInterfaceKind(value)
		if kind == model.InterfaceUnknown {
			m.logger.Debug("Skipping unknown discovery interface", zap.String("interface", value))
			continue
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// resultSet keeps discovery order and drops repeated connection keys
type resultSet struct {
	mu       sync.Mutex
	seen     map[model.ConnectionKey]bool
	printers []model.DiscoveredPrinter
}

func newResultSet(capacity int) *resultSet {
	if capacity < 0 {
		capacity = 0
	}
	return &resultSet{
		seen:     make(map[model.ConnectionKey]bool),
		printers: make([]model.DiscoveredPrinter, 0, capacity),
	}
}

func (r *resultSet) add(p model.DiscoveredPrinter) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[p.Key()] {
		return false
	}
	r.seen[p.Key()] = true
	r.printers = append(r.printers, p)
	return true
}

func (r *resultSet) list() []model.DiscoveredPrinter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.DiscoveredPrinter(nil), r.printers...)
}
