// internal/driver/escpos/printer.go
package escpos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
	"printer-bridge/internal/protocol"
	"printer-bridge/internal/utils"
	"printer-bridge/pkg/driver"
)

const readChunk = 256

// Options configures the ESC/POS driver
type Options struct {
	DotsPerMM           float64
	PaperWidthMM        int
	StatusTimeout       time.Duration
	MonitorPollInterval time.Duration
	InputPollInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.DotsPerMM <= 0 {
		o.DotsPerMM = DefaultDotsPerMM
	}
	if o.PaperWidthMM <= 0 {
		o.PaperWidthMM = DefaultPaperWidthMM
	}
	if o.StatusTimeout <= 0 {
		o.StatusTimeout = 5 * time.Second
	}
	if o.MonitorPollInterval <= 0 {
		o.MonitorPollInterval = 2 * time.Second
	}
	if o.InputPollInterval <= 0 {
		o.InputPollInterval = 200 * time.Millisecond
	}
	return o
}

// Printer implements driver.Printer for ESC/POS printers on any transport.
//
// While an input handler or delegate is installed, an open printer runs a
// background loop that owns all reads from the transport: it forwards input
// device data, polls status for the delegate and serves Status calls.
type Printer struct {
	key        model.ConnectionKey
	transports protocol.Factory
	encoder    *Encoder
	opts       Options
	logger     *utils.PrinterLogger
	health     driver.HealthTracker

	mu        sync.Mutex
	transport protocol.Transport
	open      bool
	input     driver.InputHandler
	delegate  driver.Delegate
	loop      *readLoop
}

type readLoop struct {
	cancel   context.CancelFunc
	done     chan struct{}
	requests chan statusRequest
}

type statusRequest struct {
	ctx   context.Context
	reply chan statusResult
}

type statusResult struct {
	status *model.PrinterStatus
	err    error
}

var _ driver.Printer = (*Printer)(nil)

// New creates the driver handle for key. The transport is created on the
// first Open, so New never fails.
func New(key model.ConnectionKey, transports protocol.Factory, opts Options, logger *zap.Logger) *Printer {
	opts = opts.withDefaults()
	return &Printer{
		key:        key,
		transports: transports,
		encoder:    NewEncoder(NewUnits(opts.DotsPerMM), opts.PaperWidthMM),
		opts:       opts,
		logger:     utils.NewPrinterLogger(logger, key.String(), string(key.Interface)),
	}
}

// Key returns the connection key this printer serves
func (p *Printer) Key() model.ConnectionKey {
	return p.key
}

// Open connects the transport and initialises the printer
func (p *Printer) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return driver.ErrInvalidOperation
	}

	if p.transport == nil {
		t, err := p.transports(p.key)
		if err != nil {
			return fmt.Errorf("failed to create transport: %w", err)
		}
		p.transport = t
	}

	start := time.Now()
	if err := p.transport.Open(ctx); err != nil {
		p.health.Record(time.Since(start), err)
		return err
	}

	if err := p.transport.Write(ctx, codes.Initialize); err != nil {
		p.health.Record(time.Since(start), err)
		_ = p.transport.Close()
		return fmt.Errorf("failed to initialize printer: %w", err)
	}

	p.health.Record(time.Since(start), nil)
	p.open = true

	if p.input != nil || p.delegate != nil {
		p.startLoop()
	}

	p.logger.LogConnection("open", nil)
	return nil
}

// Close stops the background loop and disconnects. Closing a closed printer
// is a no-op.
func (p *Printer) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil
	}
	loop := p.loop
	t := p.transport
	p.loop = nil
	p.open = false
	p.mu.Unlock()

	if loop != nil {
		loop.cancel()
		select {
		case <-loop.done:
		case <-ctx.Done():
			p.logger.Warn("Read loop did not stop before close deadline")
		}
	}

	err := t.Close()
	p.logger.LogConnection("close", err)
	return err
}

// IsOpen reports whether the printer connection is open
func (p *Printer) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Print renders seq and sends it in one write
func (p *Printer) Print(ctx context.Context, seq *document.Sequence) error {
	data, err := p.encoder.Encode(seq)
	if err != nil {
		return apperror.CommandCompileFailure("failed to render document", err)
	}
	return p.write(ctx, "print", data)
}

// PrintRaw sends data unchanged
func (p *Printer) PrintRaw(ctx context.Context, data []byte) error {
	return p.write(ctx, "print_raw", data)
}

func (p *Printer) write(ctx context.Context, operation string, data []byte) error {
	p.mu.Lock()
	open, t := p.open, p.transport
	p.mu.Unlock()

	if !open {
		return driver.ErrNotOpen
	}

	start := time.Now()
	err := t.Write(ctx, data)
	duration := time.Since(start)

	p.health.Record(duration, err)
	p.logger.LogOperation(operation, 1, duration, err)
	return err
}

// Status queries the real-time status of the printer
func (p *Printer) Status(ctx context.Context) (*model.PrinterStatus, error) {
	p.mu.Lock()
	open, t, loop := p.open, p.transport, p.loop
	p.mu.Unlock()

	if !open {
		return nil, driver.ErrNotOpen
	}

	if loop == nil {
		status, err := p.queryStatus(ctx, t, nil)
		p.health.Record(0, err)
		return status, err
	}

	req := statusRequest{ctx: ctx, reply: make(chan statusResult, 1)}
	select {
	case loop.requests <- req:
	case <-loop.done:
		return nil, driver.ErrNotOpen
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		p.health.Record(0, res.err)
		return res.status, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetInputHandler installs or removes the input device handler
func (p *Printer) SetInputHandler(handler driver.InputHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = handler
}

// SetDelegate installs or removes the status delegate
func (p *Printer) SetDelegate(delegate driver.Delegate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delegate = delegate
}

// HealthMetrics returns the driver health metrics
func (p *Printer) HealthMetrics() driver.HealthMetrics {
	return p.health.Snapshot()
}

// startLoop must be called with p.mu held
func (p *Printer) startLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	loop := &readLoop{
		cancel:   cancel,
		done:     make(chan struct{}),
		requests: make(chan statusRequest),
	}
	p.loop = loop
	go p.run(ctx, loop, p.transport, p.input, p.delegate)
}

func (p *Printer) run(ctx context.Context, loop *readLoop, t protocol.Transport, input driver.InputHandler, delegate driver.Delegate) {
	defer close(loop.done)

	forward := func(data []byte) {
		if input != nil && len(data) > 0 {
			input(data)
		}
	}

	var poll <-chan time.Time
	var lastReady *bool
	check := func() bool {
		status, err := p.queryStatus(ctx, t, forward)
		if err != nil {
			if ctx.Err() == nil {
				p.fail(loop, delegate, err)
			}
			return false
		}
		r := ready(status)
		if lastReady == nil || *lastReady != r {
			if r {
				delegate.OnReady()
			} else {
				delegate.OnError()
			}
			lastReady = &r
		}
		return true
	}

	if delegate != nil {
		ticker := time.NewTicker(p.opts.MonitorPollInterval)
		defer ticker.Stop()
		poll = ticker.C

		if !check() {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-loop.requests:
			status, err := p.queryStatus(req.ctx, t, forward)
			req.reply <- statusResult{status: status, err: err}
			continue
		case <-poll:
			if !check() {
				return
			}
			continue
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, p.opts.InputPollInterval)
		data, err := t.Read(readCtx, readChunk)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				p.fail(loop, delegate, err)
				return
			}
		}
		forward(data)
	}
}

// fail tears down the connection after a communication error in the loop
func (p *Printer) fail(loop *readLoop, delegate driver.Delegate, err error) {
	p.mu.Lock()
	current := p.loop == loop
	if current {
		p.loop = nil
		p.open = false
	}
	t := p.transport
	p.mu.Unlock()

	if !current {
		return
	}

	_ = t.Close()
	p.health.Record(0, err)
	p.logger.LogConnection("communication_lost", err)

	if delegate != nil {
		delegate.OnCommunicationError(err)
	}
}

// queryStatus sends DLE EOT 1 to 4 and collects the replies. Non status bytes
// read while waiting go to spill. A missing reply to DLE EOT 1 is an error;
// later replies are optional since not every model answers them.
func (p *Printer) queryStatus(ctx context.Context, t protocol.Transport, spill func([]byte)) (*model.PrinterStatus, error) {
	var reply statusReply
	targets := []*byte{&reply.printer, &reply.offline, &reply.errors, &reply.paper}
	requests := [][]byte{codes.StatusPrinter, codes.StatusOffline, codes.StatusError, codes.StatusPaperSensor}

	for i, request := range requests {
		if err := t.Write(ctx, request); err != nil {
			return nil, fmt.Errorf("failed to request status: %w", err)
		}

		b, err := p.awaitStatusByte(ctx, t, spill)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			if i == 0 {
				return nil, fmt.Errorf("no status reply within %s", p.opts.StatusTimeout)
			}
			continue
		}
		*targets[i] = b
	}

	return parseStatus(reply), nil
}

// awaitStatusByte reads until a status byte arrives or the status timeout
// elapses, in which case it returns 0 and no error
func (p *Printer) awaitStatusByte(ctx context.Context, t protocol.Transport, spill func([]byte)) (byte, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.opts.StatusTimeout)
	defer cancel()

	for {
		data, err := t.Read(waitCtx, readChunk)

		for i, b := range data {
			if isStatusByte(b) {
				if spill != nil {
					spill(data[:i])
					spill(data[i+1:])
				}
				return b, nil
			}
		}
		if spill != nil {
			spill(data)
		}

		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return 0, nil
			}
			return 0, fmt.Errorf("failed to read status: %w", err)
		}
		if waitCtx.Err() != nil {
			return 0, nil
		}
	}
}
