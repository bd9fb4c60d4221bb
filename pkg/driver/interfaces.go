// pkg/driver/interfaces.go
package driver

import (
	"context"

	"printer-bridge/internal/document"
	"printer-bridge/internal/model"
)

// Printer is the handle a session holds for one physical printer.
// Implementations are safe for concurrent use but callers are expected to
// serialise lifecycle calls per printer.
type Printer interface {
	// Connection management. Open on an already open printer returns
	// ErrInvalidOperation.
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool

	// Printing
	Print(ctx context.Context, seq *document.Sequence) error
	PrintRaw(ctx context.Context, data []byte) error

	// Status
	Status(ctx context.Context) (*model.PrinterStatus, error)

	// Subscriptions. Both take effect on the next Open; passing nil removes
	// the subscription.
	SetInputHandler(handler InputHandler)
	SetDelegate(delegate Delegate)

	Key() model.ConnectionKey
	HealthMetrics() HealthMetrics
}

// InputHandler receives bytes sent by an input device attached to the printer
// (barcode reader, keyboard). It is called from the driver's reader goroutine
// and must not block.
type InputHandler func(data []byte)

// Delegate receives printer state transitions while a connection is open
type Delegate interface {
	OnReady()
	OnError()
	OnCommunicationError(err error)
}
