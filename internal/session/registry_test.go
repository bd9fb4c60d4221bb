package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-bridge/internal/callback"
	"printer-bridge/internal/model"
	"printer-bridge/pkg/driver"
)

var (
	lanKey = model.ConnectionKey{Interface: model.InterfaceLAN, Identifier: "192.168.1.20"}
	usbKey = model.ConnectionKey{Interface: model.InterfaceUSB, Identifier: "0519:0003"}
	btKey  = model.ConnectionKey{Interface: model.InterfaceBluetooth, Identifier: "/dev/rfcomm0"}
)

// printerSet hands out one fake printer per key
type printerSet struct {
	mu       sync.Mutex
	printers map[model.ConnectionKey]*fakePrinter
	created  atomic.Int32
}

func newPrinterSet() *printerSet {
	return &printerSet{printers: make(map[model.ConnectionKey]*fakePrinter)}
}

func (ps *printerSet) factory(key model.ConnectionKey) driver.Printer {
	ps.created.Add(1)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.printers[key]
	if !ok {
		p = newFakePrinter(key)
		ps.printers[key] = p
	}
	return p
}

func (ps *printerSet) get(key model.ConnectionKey) *fakePrinter {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.printers[key]
}

func TestResolveReturnsSameSession(t *testing.T) {
	ps := newPrinterSet()
	r := NewRegistry(ps.factory, callback.NewRegistry(), zap.NewNop())

	a := r.Resolve(lanKey)
	b := r.Resolve(lanKey)
	c := r.Resolve(btKey)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
	assert.False(t, a.Persistent())
	assert.True(t, c.Persistent())
	assert.Equal(t, StateClosed, a.State())

	got, ok := r.Get(btKey)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = r.Get(usbKey)
	assert.False(t, ok)
}

func TestResolveConcurrentSingleSession(t *testing.T) {
	ps := newPrinterSet()
	r := NewRegistry(ps.factory, callback.NewRegistry(), zap.NewNop())

	const workers = 64
	results := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(usbKey)
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, int32(1), ps.created.Load())
	assert.Equal(t, 1, r.Len())
}

func TestSessionsOrderedByKey(t *testing.T) {
	r := NewRegistry(newPrinterSet().factory, callback.NewRegistry(), zap.NewNop())
	r.Resolve(usbKey)
	r.Resolve(btKey)
	r.Resolve(lanKey)

	var keys []string
	for _, s := range r.Sessions() {
		keys = append(keys, s.Key().String())
	}
	assert.Equal(t, []string{btKey.String(), lanKey.String(), usbKey.String()}, keys)
}

func TestCloseAllTearsDownEverything(t *testing.T) {
	ps := newPrinterSet()
	callbacks := callback.NewRegistry()
	r := NewRegistry(ps.factory, callbacks, zap.NewNop())
	ctrl := NewController(&fakeEmitter{}, callbacks, ControllerOptions{}, zap.NewNop())
	ctx := context.Background()

	bt := r.Resolve(btKey)
	lan := r.Resolve(lanKey)

	callbacks.Register("listen-1", fakeSink{id: "ws"})
	callbacks.Register("monitor-1", fakeSink{id: "ws"})
	require.NoError(t, ctrl.StartInputListener(ctx, bt, "listen-1"))
	require.NoError(t, ctrl.Monitor(ctx, bt, "monitor-1"))
	ctrl.Wait()

	ps.get(lanKey).closeErr = errors.New("socket busy")

	err := r.CloseAll(ctx)
	assert.ErrorContains(t, err, "socket busy")

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, callbacks.Len())
	assert.False(t, ps.get(btKey).IsOpen())
	assert.Nil(t, ps.get(btKey).Input())
	assert.Nil(t, ps.get(btKey).Delegate())
	assert.Equal(t, StateClosed, bt.State())
	assert.Equal(t, StateClosed, lan.State())
	assert.False(t, bt.Snapshot().Listening)
	assert.False(t, bt.Snapshot().Monitoring)

	// A new session is created after teardown
	assert.NotSame(t, bt, r.Resolve(btKey))
}
