// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
	"printer-bridge/pkg/driver"
)

// Monitor event texts
const (
	MessageNotBluetooth    = "Not a bluetooth device, no need to continue."
	MessageCouldNotConnect = "Could not connect"
	MessageReady           = "Ready for printing"
	MessagePrinterError    = "Printer error, please check the printer."
)

// ControllerOptions configures the lifecycle controller
type ControllerOptions struct {
	// PersistentAttempts is the number of print attempts on persistent
	// interfaces
	PersistentAttempts int
	// CloseTimeout bounds cleanup closes that run after the caller's context
	// is done
	CloseTimeout time.Duration
	// ReconnectTimeout bounds the background reconnect started by Monitor
	ReconnectTimeout time.Duration
}

// Controller applies the open and close policy around printer operations
type Controller struct {
	emitter   callback.Emitter
	callbacks *callback.Registry
	opts      ControllerOptions
	logger    *zap.Logger

	background sync.WaitGroup
}

// NewController creates a lifecycle controller
func NewController(emitter callback.Emitter, callbacks *callback.Registry, opts ControllerOptions, logger *zap.Logger) *Controller {
	if opts.PersistentAttempts < 1 {
		opts.PersistentAttempts = 2
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = 10 * time.Second
	}
	if opts.ReconnectTimeout <= 0 {
		opts.ReconnectTimeout = 60 * time.Second
	}
	return &Controller{
		emitter:   emitter,
		callbacks: callbacks,
		opts:      opts,
		logger:    logger,
	}
}

// Wait blocks until background reconnects started by Monitor have finished
func (c *Controller) Wait() {
	c.background.Wait()
}

// Open opens the session. An already open session is a success.
func (c *Controller) Open(ctx context.Context, s *Session) error {
	s.op.Lock()
	defer s.op.Unlock()
	return c.open(ctx, s)
}

// Close closes the session
func (c *Controller) Close(ctx context.Context, s *Session) error {
	s.op.Lock()
	defer s.op.Unlock()
	return c.close(ctx, s)
}

// WithOpenSession opens the session, runs op and closes the session again
// unless it is persistent. The close runs whether op succeeds or not.
func (c *Controller) WithOpenSession(ctx context.Context, s *Session, op func(ctx context.Context, p driver.Printer) error) error {
	s.op.Lock()
	defer s.op.Unlock()

	if !s.persistent {
		defer c.cleanup(ctx, s)
	}

	if err := c.open(ctx, s); err != nil {
		return err
	}
	return c.operationError(s, op(ctx, s.printer))
}

// Print prints a compiled document. Persistent sessions retry a failed
// attempt after reconnecting, up to PersistentAttempts attempts in total;
// other sessions make one attempt and always close afterwards. It returns
// the number of attempts made.
func (c *Controller) Print(ctx context.Context, s *Session, seq *document.Sequence) (int, error) {
	s.op.Lock()
	defer s.op.Unlock()

	if !s.persistent {
		defer c.cleanup(ctx, s)
	}

	attempts := 1
	if s.persistent {
		attempts = c.opts.PersistentAttempts
	}

	var err error
	attempt := 0
	for attempt < attempts {
		attempt++
		if attempt > 1 {
			c.closeLogged(ctx, s)
		}

		start := time.Now()
		err = c.open(ctx, s)
		if err == nil {
			err = c.operationError(s, s.printer.Print(ctx, seq))
		}
		s.logger.LogOperation("print", attempt, time.Since(start), err)

		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil || errors.Is(err, apperror.ErrCommandCompileFailure) {
			break
		}
	}

	return attempt, err
}

// PrintRaw writes bytes unchanged. It is not retried.
func (c *Controller) PrintRaw(ctx context.Context, s *Session, data []byte) error {
	return c.WithOpenSession(ctx, s, func(ctx context.Context, p driver.Printer) error {
		return p.PrintRaw(ctx, data)
	})
}

// GetStatus opens the session, queries status and always closes afterwards,
// whatever the interface kind
func (c *Controller) GetStatus(ctx context.Context, s *Session) (*model.PrinterStatus, error) {
	s.op.Lock()
	defer s.op.Unlock()
	defer c.cleanup(ctx, s)

	if err := c.open(ctx, s); err != nil {
		return nil, err
	}

	status, err := s.printer.Status(ctx)
	if err != nil {
		return nil, c.operationError(s, err)
	}
	return status, nil
}

// StartInputListener routes input device data to callbackID as dataReceived
// events. The connection is closed and reopened so the handler takes effect.
func (c *Controller) StartInputListener(ctx context.Context, s *Session, callbackID string) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.setListener(callbackID)
	s.printer.SetInputHandler(func(data []byte) {
		c.emitter.Emit(model.NewEvent(callbackID, model.EventDataReceived, model.DataReceivedData(data)))
		s.logger.LogEvent(callbackID, string(model.EventDataReceived))
	})

	c.closeLogged(ctx, s)
	return c.open(ctx, s)
}

// StopInputListener removes the input handler, unregisters its callback and
// closes the session
func (c *Controller) StopInputListener(ctx context.Context, s *Session, callbackID string) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.printer.SetInputHandler(nil)

	for _, id := range []string{s.ListenerID(), callbackID} {
		if id != "" {
			c.callbacks.Unregister(id)
		}
	}
	s.setListener("")

	return c.close(ctx, s)
}

// Monitor streams connection state for callbackID. Non bluetooth sessions
// get a single connected event; bluetooth sessions get a status delegate and
// reconnect in the background.
func (c *Controller) Monitor(ctx context.Context, s *Session, callbackID string) error {
	if !s.persistent {
		c.emit(s, callbackID, model.EventMonitor, model.ConnectionUpdate(model.UpdateConnected, MessageNotBluetooth))
		return nil
	}

	s.op.Lock()
	s.setMonitor(callbackID)
	s.printer.SetDelegate(&sessionDelegate{controller: c, session: s, callbackID: callbackID})
	s.op.Unlock()

	bg := context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()

		reconnectCtx, cancel := context.WithTimeout(bg, c.opts.ReconnectTimeout)
		defer cancel()

		s.op.Lock()
		defer s.op.Unlock()

		c.closeLogged(reconnectCtx, s)
		if err := c.open(reconnectCtx, s); err != nil {
			c.emit(s, callbackID, model.EventMonitor, model.ConnectionUpdate(model.UpdateDisconnected, MessageCouldNotConnect))
		}
	}()

	return nil
}

// open must be called with the session's operation lock held
func (c *Controller) open(ctx context.Context, s *Session) error {
	s.setState(StateOpening, nil)

	err := s.printer.Open(ctx)
	if err == nil || errors.Is(err, driver.ErrInvalidOperation) {
		s.setState(StateOpen, nil)
		return nil
	}

	s.setState(StateClosed, err)
	s.logger.LogConnection("open", err)
	return apperror.ConnectionOpenFailure(err)
}

// close must be called with the session's operation lock held
func (c *Controller) close(ctx context.Context, s *Session) error {
	s.setState(StateClosing, nil)

	err := s.printer.Close(ctx)
	s.setState(StateClosed, err)
	if err != nil {
		s.logger.LogConnection("close", err)
		return apperror.ConnectionCloseFailure(err)
	}
	return nil
}

// closeLogged closes and only logs a failure
func (c *Controller) closeLogged(ctx context.Context, s *Session) {
	_ = c.close(ctx, s)
}

// cleanup closes after an operation, even when ctx is already done
func (c *Controller) cleanup(ctx context.Context, s *Session) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.CloseTimeout)
	defer cancel()
	c.closeLogged(closeCtx, s)
}

// operationError classifies a driver failure. Errors that already carry a
// code keep it; everything else is a vendor communication failure.
func (c *Controller) operationError(s *Session, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.From(err)
	}
	s.setState(StateError, err)
	return apperror.VendorCommunicationFailure(err)
}

func (c *Controller) emit(s *Session, callbackID string, eventType model.EventType, data model.JSONObject) {
	c.emitter.Emit(model.NewEvent(callbackID, eventType, data))
	s.logger.LogEvent(callbackID, string(eventType))
}

// sessionDelegate turns driver state callbacks into push events
type sessionDelegate struct {
	controller *Controller
	session    *Session
	callbackID string
}

func (d *sessionDelegate) OnReady() {
	d.session.setState(StateOpen, nil)
	d.controller.emit(d.session, d.callbackID, model.EventOnReady,
		model.ConnectionUpdate(model.UpdateConnected, MessageReady))
}

func (d *sessionDelegate) OnError() {
	d.controller.emit(d.session, d.callbackID, model.EventOnError,
		model.ConnectionUpdate(model.UpdateError, MessagePrinterError))
}

func (d *sessionDelegate) OnCommunicationError(err error) {
	d.session.setState(StateError, err)
	d.controller.emit(d.session, d.callbackID, model.EventOnCommunicationError,
		model.ConnectionUpdate(model.UpdateDisconnected, err.Error()))
}
