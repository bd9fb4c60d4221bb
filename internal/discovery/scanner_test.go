package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
)

type fakeScanner struct {
	kind      model.InterfaceKind
	printers  []model.DiscoveredPrinter
	err       error
	available bool
	scans     atomic.Int32
}

func (s *fakeScanner) Interface() model.InterfaceKind { return s.kind }
func (s *fakeScanner) IsAvailable() bool              { return s.available }

func (s *fakeScanner) Scan(ctx context.Context, found func(model.DiscoveredPrinter)) error {
	s.scans.Add(1)
	for _, p := range s.printers {
		found(p)
	}
	return s.err
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

var (
	lanPrinter = model.DiscoveredPrinter{Model: model.ModelTSP100IIILAN, Identifier: "192.168.1.20", Interface: model.InterfaceLAN}
	btPrinter  = model.DiscoveredPrinter{Model: model.ModelSML200, Identifier: "/dev/rfcomm0", Interface: model.InterfaceBluetooth}
	usbPrinter = model.DiscoveredPrinter{Model: model.ModelTSP100IIIU, Identifier: "0519:0003", Interface: model.InterfaceUSB}
)

func newTestManager(emitter *fakeEmitter, perm PermissionFunc) (*Manager, map[model.InterfaceKind]*fakeScanner) {
	m := NewManager(emitter, Options{
		DefaultTimeout:      30 * time.Millisecond,
		MaxTimeout:          200 * time.Millisecond,
		BluetoothPermission: perm,
	}, zap.NewNop())

	scanners := map[model.InterfaceKind]*fakeScanner{
		model.InterfaceLAN:       {kind: model.InterfaceLAN, available: true, printers: []model.DiscoveredPrinter{lanPrinter, lanPrinter}},
		model.InterfaceBluetooth: {kind: model.InterfaceBluetooth, available: true, printers: []model.DiscoveredPrinter{btPrinter}},
		model.InterfaceUSB:       {kind: model.InterfaceUSB, available: true, printers: []model.DiscoveredPrinter{usbPrinter}},
	}
	for _, s := range scanners {
		m.RegisterScanner(s)
	}
	return m, scanners
}

func TestFindAggregatesRequestedInterfaces(t *testing.T) {
	emitter := &fakeEmitter{}
	m, scanners := newTestManager(emitter, nil)

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"lan", "usb"}, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	assert.ElementsMatch(t, []model.DiscoveredPrinter{lanPrinter, usbPrinter}, printers)
	assert.Equal(t, int32(0), scanners[model.InterfaceBluetooth].scans.Load())
	assert.Empty(t, emitter.Events(), "no callback, no events")
}

func TestFindStreamsPrinterFound(t *testing.T) {
	emitter := &fakeEmitter{}
	m, _ := newTestManager(emitter, nil)

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"lan"}, CallbackID: "cb-find"})
	require.NoError(t, err)
	require.Len(t, printers, 1)

	events := emitter.Events()
	require.Len(t, events, 1, "duplicates are reported once")
	assert.Equal(t, "cb-find", events[0].GUID)
	assert.Equal(t, model.EventPrinterFound, events[0].Type)
	assert.Equal(t, model.PrinterFoundData(lanPrinter), events[0].Data)
}

func TestFindBluetoothLEScansBluetooth(t *testing.T) {
	m, scanners := newTestManager(&fakeEmitter{}, nil)

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"bluetoothLE", "bluetooth"}})
	require.NoError(t, err)

	assert.Equal(t, []model.DiscoveredPrinter{btPrinter}, printers)
	assert.Equal(t, int32(1), scanners[model.InterfaceBluetooth].scans.Load())
}

func TestFindSkipsUnknownInterfaces(t *testing.T) {
	m, _ := newTestManager(&fakeEmitter{}, nil)

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"urb", "serial"}})
	require.NoError(t, err)
	assert.Empty(t, printers)
}

func TestFindBluetoothPermissionDenied(t *testing.T) {
	m, scanners := newTestManager(&fakeEmitter{}, func() error { return errors.New("EACCES") })

	start := time.Now()
	_, err := m.Find(context.Background(), Request{Interfaces: []string{"lan", "bluetooth"}})

	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MessageBluetoothPermissionDenied, appErr.Message)
	for _, s := range scanners {
		assert.Equal(t, int32(0), s.scans.Load(), string(s.kind))
	}
	assert.Less(t, time.Since(start), 30*time.Millisecond)
}

func TestFindPermissionOnlyCheckedForBluetooth(t *testing.T) {
	m, _ := newTestManager(&fakeEmitter{}, func() error { return errors.New("EACCES") })

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"usb"}})
	require.NoError(t, err)
	assert.Equal(t, []model.DiscoveredPrinter{usbPrinter}, printers)
}

func TestFindWaitsForTimeout(t *testing.T) {
	m, _ := newTestManager(&fakeEmitter{}, nil)

	start := time.Now()
	_, err := m.Find(context.Background(), Request{Interfaces: []string{"usb"}, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestFindScannerFailureIsNotFatal(t *testing.T) {
	m, scanners := newTestManager(&fakeEmitter{}, nil)
	scanners[model.InterfaceUSB].err = errors.New("libusb not found")

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"usb", "lan"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.DiscoveredPrinter{lanPrinter, usbPrinter}, printers)
}

func TestFindSkipsUnavailableScanner(t *testing.T) {
	m, scanners := newTestManager(&fakeEmitter{}, nil)
	scanners[model.InterfaceLAN].available = false

	printers, err := m.Find(context.Background(), Request{Interfaces: []string{"lan"}})
	require.NoError(t, err)
	assert.Empty(t, printers)
	assert.Equal(t, int32(0), scanners[model.InterfaceLAN].scans.Load())
	assert.Equal(t, []model.InterfaceKind{model.InterfaceBluetooth, model.InterfaceUSB}, m.AvailableInterfaces())
}

func TestFindCallerCancelled(t *testing.T) {
	m, _ := newTestManager(&fakeEmitter{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Find(ctx, Request{Interfaces: []string{"lan"}})
	assert.Error(t, err)
}

func TestTimeoutClamp(t *testing.T) {
	m, _ := newTestManager(&fakeEmitter{}, nil)

	assert.Equal(t, 30*time.Millisecond, m.Timeout(0))
	assert.Equal(t, 30*time.Millisecond, m.Timeout(-time.Second))
	assert.Equal(t, 100*time.Millisecond, m.Timeout(100*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, m.Timeout(time.Hour))
}
