package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/callback"
	"printer-bridge/internal/discovery"
	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
	"printer-bridge/internal/repository"
	"printer-bridge/internal/session"
	"printer-bridge/pkg/driver"
)

var errLink = errors.New("link down")

type fakePrinter struct {
	mu        sync.Mutex
	key       model.ConnectionKey
	open      bool
	openErr   error
	closeErr  error
	printErrs []error
	calls     []string
	raw       []byte
}

func (f *fakePrinter) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "open")
	if f.openErr != nil {
		return f.openErr
	}
	if f.open {
		return driver.ErrInvalidOperation
	}
	f.open = true
	return nil
}

func (f *fakePrinter) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "close")
	f.open = false
	return f.closeErr
}

func (f *fakePrinter) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakePrinter) Print(ctx context.Context, seq *document.Sequence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "print")
	if len(f.printErrs) > 0 {
		err := f.printErrs[0]
		f.printErrs = f.printErrs[1:]
		return err
	}
	return nil
}

func (f *fakePrinter) PrintRaw(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "printRaw")
	f.raw = append([]byte(nil), data...)
	return nil
}

func (f *fakePrinter) Status(ctx context.Context) (*model.PrinterStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "status")
	return &model.PrinterStatus{CoverOpen: true}, nil
}

func (f *fakePrinter) SetInputHandler(handler driver.InputHandler) {}
func (f *fakePrinter) SetDelegate(delegate driver.Delegate)        {}
func (f *fakePrinter) Key() model.ConnectionKey                    { return f.key }
func (f *fakePrinter) HealthMetrics() driver.HealthMetrics         { return driver.HealthMetrics{} }

func (f *fakePrinter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []model.Event
}

func (e *fakeEmitter) Emit(event model.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *fakeEmitter) Events() []model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Event(nil), e.events...)
}

type fakeSink struct{ id string }

func (s fakeSink) ID() string                      { return s.id }
func (s fakeSink) Deliver(event model.Event) error { return nil }

type fakeScanner struct {
	kind     model.InterfaceKind
	printers []model.DiscoveredPrinter
}

func (s *fakeScanner) Interface() model.InterfaceKind { return s.kind }
func (s *fakeScanner) IsAvailable() bool              { return true }

func (s *fakeScanner) Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error {
	for _, p := range s.printers {
		found(p)
	}
	return nil
}

type fixture struct {
	mu        sync.Mutex
	printers  map[model.ConnectionKey]*fakePrinter
	emitter   *fakeEmitter
	callbacks *callback.Registry
	repo      repository.OperationRepository
	journal   *Journal
	service   *PrinterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	f := &fixture{
		printers:  make(map[model.ConnectionKey]*fakePrinter),
		emitter:   &fakeEmitter{},
		callbacks: callback.NewRegistry(),
		repo:      repository.NewMemoryRepository(100),
	}
	f.journal = NewJournal(f.repo, time.Hour, logger)

	registry := session.NewRegistry(f.printer, f.callbacks, logger)
	controller := session.NewController(f.emitter, f.callbacks, session.ControllerOptions{
		PersistentAttempts: 2,
		CloseTimeout:       time.Second,
		ReconnectTimeout:   time.Second,
	}, logger)

	manager := discovery.NewManager(f.emitter, discovery.Options{
		DefaultTimeout: 50 * time.Millisecond,
		MaxTimeout:     200 * time.Millisecond,
	}, logger)
	manager.RegisterScanner(&fakeScanner{
		kind: model.InterfaceLAN,
		printers: []model.DiscoveredPrinter{
			{Model: model.ModelTSP100IIILAN, Identifier: "192.168.1.20", Interface: model.InterfaceLAN},
		},
	})

	dispatcher := NewDispatcher(4, 5*time.Second, f.journal, logger)
	f.service = NewPrinterService(registry, controller, manager, document.NewBuilder(0),
		f.callbacks, dispatcher, 5*time.Second, logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.service.Shutdown(ctx)
	})
	return f
}

// printer is the session factory; it hands out one fake per key
func (f *fixture) printer(key model.ConnectionKey) driver.Printer {
	return f.fake(key)
}

func (f *fixture) fake(key model.ConnectionKey) *fakePrinter {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.printers[key]
	if !ok {
		p = &fakePrinter{key: key}
		f.printers[key] = p
	}
	return p
}

func (f *fixture) lastRecord(t *testing.T) *model.OperationRecord {
	t.Helper()
	ops, _, err := f.repo.List(context.Background(), model.OperationFilter{Limit: 1})
	if err != nil || len(ops) == 0 {
		t.Fatalf("no journal entry: %v", err)
	}
	return ops[0]
}

var (
	lanKey = model.ConnectionKey{Interface: model.InterfaceLAN, Identifier: "192.168.1.20"}
	btKey  = model.ConnectionKey{Interface: model.InterfaceBluetooth, Identifier: "/dev/rfcomm0"}
)

const (
	lanPrinterJSON = `{"interface":"lan","identifier":"192.168.1.20"}`
	btPrinterJSON  = `{"interface":"bluetooth","identifier":"/dev/rfcomm0"}`
	receiptJSON    = `{"contents":[{"type":"print","data":{"actions":[{"action":"printText","text":"Hello"},{"action":"cut"}]}}]}`
)
