package session

import (
	"context"
	"sync"
	"time"

	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
	"printer-bridge/pkg/driver"
)

// fakePrinter records calls and fails on demand. openErrs and printErrs are
// consumed one per call; an exhausted list means success.
type fakePrinter struct {
	mu        sync.Mutex
	key       model.ConnectionKey
	open      bool
	openErrs  []error
	printErrs []error
	closeErr  error
	statusErr error
	calls     []string
	input     driver.InputHandler
	delegate  driver.Delegate

	printDelay time.Duration
	active     int
	maxActive  int
}

func newFakePrinter(key model.ConnectionKey) *fakePrinter {
	return &fakePrinter{key: key}
}

func (f *fakePrinter) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakePrinter) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("open")
	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		f.openErrs = f.openErrs[1:]
		if err != nil {
			return err
		}
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
	f.record("close")
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
	f.record("print")
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	var err error
	if len(f.printErrs) > 0 {
		err = f.printErrs[0]
		f.printErrs = f.printErrs[1:]
	}
	delay := f.printDelay
	f.mu.Unlock()

	time.Sleep(delay)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return err
}

func (f *fakePrinter) PrintRaw(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("printRaw")
	return nil
}

func (f *fakePrinter) Status(ctx context.Context) (*model.PrinterStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status")
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &model.PrinterStatus{PaperNearEmpty: true}, nil
}

func (f *fakePrinter) SetInputHandler(handler driver.InputHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = handler
}

func (f *fakePrinter) SetDelegate(delegate driver.Delegate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delegate = delegate
}

func (f *fakePrinter) Key() model.ConnectionKey            { return f.key }
func (f *fakePrinter) HealthMetrics() driver.HealthMetrics { return driver.HealthMetrics{} }

func (f *fakePrinter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePrinter) Input() driver.InputHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

func (f *fakePrinter) Delegate() driver.Delegate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delegate
}

// fakeEmitter collects emitted events
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

// fakeSink satisfies callback.Sink for registration checks
type fakeSink struct{ id string }

func (s fakeSink) ID() string                      { return s.id }
func (s fakeSink) Deliver(event model.Event) error { return nil }
