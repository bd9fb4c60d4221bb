// internal/service/printer_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/discovery"
	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
	"printer-bridge/internal/session"
	"printer-bridge/internal/utils"
	"printer-bridge/pkg/driver"
)

// discoveryGrace is added to the discovery timeout to bound the whole task
const discoveryGrace = 5 * time.Second

// PrinterService implements the bridge methods on top of the session
// controller, the discovery manager and the task dispatcher
type PrinterService struct {
	registry      *session.Registry
	controller    *session.Controller
	discovery     *discovery.Manager
	builder       *document.Builder
	callbacks     *callback.Registry
	dispatcher    *Dispatcher
	statusTimeout time.Duration
	logger        *utils.ServiceLogger
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	registry *session.Registry,
	controller *session.Controller,
	discoveryManager *discovery.Manager,
	builder *document.Builder,
	callbacks *callback.Registry,
	dispatcher *Dispatcher,
	statusTimeout time.Duration,
	logger *zap.Logger,
) *PrinterService {
	return &PrinterService{
		registry:      registry,
		controller:    controller,
		discovery:     discoveryManager,
		builder:       builder,
		callbacks:     callbacks,
		dispatcher:    dispatcher,
		statusTimeout: statusTimeout,
		logger:        utils.NewServiceLogger(logger, "printer-service"),
	}
}

// Call runs a bridge method with JSON arguments. Callback ids in the
// arguments are bound to sink when it is not nil.
func (ps *PrinterService) Call(ctx context.Context, method string, raw json.RawMessage, sink callback.Sink) (interface{}, error) {
	switch method {
	case MethodFindPrinters:
		var args FindPrintersArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return ps.FindPrinters(ctx, args, sink)

	case MethodOpenConnection, MethodCloseConnection, MethodGetStatus:
		var args PrinterArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		switch method {
		case MethodOpenConnection:
			return ps.OpenConnection(ctx, args)
		case MethodCloseConnection:
			return ps.CloseConnection(ctx, args)
		default:
			return ps.GetStatus(ctx, args)
		}

	case MethodPrintDocument, MethodUpdateDisplay:
		var args DocumentArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return ps.PrintDocument(ctx, method, args)

	case MethodPrintRawBytes:
		var args RawBytesArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return ps.PrintRawBytes(ctx, args)

	case MethodStartInputListener, MethodStopInputListener, MethodMonitor:
		var args CallbackArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		switch method {
		case MethodStartInputListener:
			return ps.StartInputListener(ctx, args, sink)
		case MethodStopInputListener:
			return ps.StopInputListener(ctx, args)
		default:
			return ps.Monitor(ctx, args, sink)
		}
	}

	return nil, apperror.NotImplemented(method)
}

// FindPrinters scans the requested interfaces until the timeout elapses
func (ps *PrinterService) FindPrinters(ctx context.Context, args FindPrintersArgs, sink callback.Sink) (*FindPrintersResult, error) {
	ps.bind(args.Callback, sink)

	timeout := ps.discovery.Timeout(time.Duration(args.Timeout) * time.Millisecond)
	value, err := ps.dispatcher.Submit(ctx, Task{
		Method:     MethodFindPrinters,
		CallbackID: args.Callback,
		Timeout:    timeout + discoveryGrace,
		Run: func(ctx context.Context) (interface{}, int, error) {
			printers, err := ps.discovery.Find(ctx, discovery.Request{
				Interfaces: args.Interfaces,
				Timeout:    timeout,
				CallbackID: args.Callback,
			})
			if err != nil {
				return nil, 1, err
			}
			if printers == nil {
				printers = []model.DiscoveredPrinter{}
			}
			return &FindPrintersResult{Printers: printers}, 1, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return value.(*FindPrintersResult), nil
}

// OpenConnection opens the printer's connection. An open failure is reported
// as false rather than an error.
func (ps *PrinterService) OpenConnection(ctx context.Context, args PrinterArgs) (bool, error) {
	return ps.connectionCall(ctx, MethodOpenConnection, args, ps.controller.Open, apperror.ErrConnectionOpenFailure)
}

// CloseConnection closes the printer's connection. A close failure is
// reported as false rather than an error.
func (ps *PrinterService) CloseConnection(ctx context.Context, args PrinterArgs) (bool, error) {
	return ps.connectionCall(ctx, MethodCloseConnection, args, ps.controller.Close, apperror.ErrConnectionCloseFailure)
}

func (ps *PrinterService) connectionCall(
	ctx context.Context,
	method string,
	args PrinterArgs,
	op func(context.Context, *session.Session) error,
	soft error,
) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method: method,
		Key:    &key,
		Run: func(ctx context.Context) (interface{}, int, error) {
			return true, 1, op(ctx, ps.registry.Resolve(key))
		},
	})
	if errors.Is(err, soft) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetStatus queries the printer status. The connection is always closed
// afterwards.
func (ps *PrinterService) GetStatus(ctx context.Context, args PrinterArgs) (*model.PrinterStatus, error) {
	key, err := args.key()
	if err != nil {
		return nil, err
	}

	value, err := ps.dispatcher.Submit(ctx, Task{
		Method:  MethodGetStatus,
		Key:     &key,
		Timeout: ps.statusTimeout,
		Run: func(ctx context.Context) (interface{}, int, error) {
			status, err := ps.controller.GetStatus(ctx, ps.registry.Resolve(key))
			return status, 1, err
		},
	})
	if err != nil {
		return nil, err
	}
	return value.(*model.PrinterStatus), nil
}

// PrintDocument compiles a document and prints it. updateDisplay takes the
// same path. The document is compiled once, before any connection attempt.
func (ps *PrinterService) PrintDocument(ctx context.Context, method string, args DocumentArgs) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}
	if method != MethodUpdateDisplay {
		method = MethodPrintDocument
	}

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method: method,
		Key:    &key,
		Run: func(ctx context.Context) (interface{}, int, error) {
			seq, err := ps.builder.Build(args.Document)
			if err != nil {
				return nil, 0, err
			}
			attempts, err := ps.controller.Print(ctx, ps.registry.Resolve(key), seq)
			return true, attempts, err
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// PrintRawBytes writes bytes to the printer unchanged. Missing bytes only
// open and close the connection.
func (ps *PrinterService) PrintRawBytes(ctx context.Context, args RawBytesArgs) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}

	var data []byte
	if !isNull(args.Bytes) {
		if data, err = document.DecodeBytes("bytes", args.Bytes); err != nil {
			return false, apperror.Wrap(apperror.CodeInvalidArgument, "invalid bytes", err)
		}
	}

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method: MethodPrintRawBytes,
		Key:    &key,
		Run: func(ctx context.Context) (interface{}, int, error) {
			s := ps.registry.Resolve(key)
			if data == nil {
				return true, 1, ps.controller.WithOpenSession(ctx, s, func(context.Context, driver.Printer) error {
					return nil
				})
			}
			return true, 1, ps.controller.PrintRaw(ctx, s, data)
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// StartInputListener routes input device data to the callback id
func (ps *PrinterService) StartInputListener(ctx context.Context, args CallbackArgs, sink callback.Sink) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}
	if err := requireCallback(args.Callback); err != nil {
		return false, err
	}
	ps.bind(args.Callback, sink)

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method:     MethodStartInputListener,
		Key:        &key,
		CallbackID: args.Callback,
		Run: func(ctx context.Context) (interface{}, int, error) {
			return true, 1, ps.controller.StartInputListener(ctx, ps.registry.Resolve(key), args.Callback)
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// StopInputListener removes the input listener and closes the connection.
// It reports true even when the close fails.
func (ps *PrinterService) StopInputListener(ctx context.Context, args CallbackArgs) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method:     MethodStopInputListener,
		Key:        &key,
		CallbackID: args.Callback,
		Run: func(ctx context.Context) (interface{}, int, error) {
			if err := ps.controller.StopInputListener(ctx, ps.registry.Resolve(key), args.Callback); err != nil {
				ps.logger.Warn("Close after stopping input listener failed",
					zap.String("connection_key", key.String()),
					zap.Error(err),
				)
			}
			return true, 1, nil
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Monitor streams connection state events to the callback id
func (ps *PrinterService) Monitor(ctx context.Context, args CallbackArgs, sink callback.Sink) (bool, error) {
	key, err := args.key()
	if err != nil {
		return false, err
	}
	if err := requireCallback(args.Callback); err != nil {
		return false, err
	}
	ps.bind(args.Callback, sink)

	_, err = ps.dispatcher.Submit(ctx, Task{
		Method:     MethodMonitor,
		Key:        &key,
		CallbackID: args.Callback,
		Run: func(ctx context.Context) (interface{}, int, error) {
			return true, 1, ps.controller.Monitor(ctx, ps.registry.Resolve(key), args.Callback)
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Sessions returns a snapshot of every known printer session
func (ps *PrinterService) Sessions() []session.Snapshot {
	sessions := ps.registry.Sessions()
	snapshots := make([]session.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snapshots = append(snapshots, s.Snapshot())
	}
	return snapshots
}

// AvailableInterfaces lists the interface kinds discovery can scan on this host
func (ps *PrinterService) AvailableInterfaces() []model.InterfaceKind {
	return ps.discovery.AvailableInterfaces()
}

// Shutdown drains queued tasks, waits for background reconnects and closes
// every session
func (ps *PrinterService) Shutdown(ctx context.Context) error {
	ps.logger.LogServiceStop("shutdown")

	var errs []error
	if err := ps.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	ps.controller.Wait()
	if err := ps.registry.CloseAll(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (ps *PrinterService) bind(callbackID string, sink callback.Sink) {
	if callbackID == "" || sink == nil {
		return
	}
	ps.callbacks.Register(callbackID, sink)
}
