// internal/service/args.go
package service

import (
	"bytes"
	"encoding/json"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
)

// Bridge method names
const (
	MethodFindPrinters       = "findPrinters"
	MethodOpenConnection     = "openConnection"
	MethodCloseConnection    = "closeConnection"
	MethodGetStatus          = "getStatus"
	MethodPrintDocument      = "printDocument"
	MethodUpdateDisplay      = "updateDisplay"
	MethodPrintRawBytes      = "printRawBytes"
	MethodStartInputListener = "startInputListener"
	MethodStopInputListener  = "stopInputListener"
	MethodMonitor            = "monitor"
)

// Methods lists every supported method name
var Methods = []string{
	MethodFindPrinters,
	MethodOpenConnection,
	MethodCloseConnection,
	MethodGetStatus,
	MethodPrintDocument,
	MethodUpdateDisplay,
	MethodPrintRawBytes,
	MethodStartInputListener,
	MethodStopInputListener,
	MethodMonitor,
}

// FindPrintersArgs are the arguments of findPrinters. Timeout is in
// milliseconds.
type FindPrintersArgs struct {
	Interfaces []string `json:"interfaces"`
	Timeout    int      `json:"timeout"`
	Callback   string   `json:"callback,omitempty"`
}

// PrinterArgs identifies the target printer
type PrinterArgs struct {
	Printer *model.PrinterRef `json:"printer"`
}

// DocumentArgs are the arguments of printDocument and updateDisplay
type DocumentArgs struct {
	PrinterArgs
	Document json.RawMessage `json:"document"`
}

// RawBytesArgs are the arguments of printRawBytes. Bytes is a base64 string
// or an array of numbers.
type RawBytesArgs struct {
	PrinterArgs
	Bytes json.RawMessage `json:"bytes"`
}

// CallbackArgs are the arguments of the subscription methods
type CallbackArgs struct {
	PrinterArgs
	Callback string `json:"callback"`
}

// FindPrintersResult is the result of findPrinters
type FindPrintersResult struct {
	Printers []model.DiscoveredPrinter `json:"printers"`
}

// decodeArgs unmarshals raw into dst. Empty input leaves dst zero.
func decodeArgs(raw json.RawMessage, dst interface{}) error {
	if isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.Wrap(apperror.CodeInvalidArgument, "invalid arguments", err)
	}
	return nil
}

func (a PrinterArgs) key() (model.ConnectionKey, error) {
	if a.Printer == nil {
		return model.ConnectionKey{}, apperror.InvalidArgument("printer is required")
	}
	key, err := a.Printer.Key()
	if err != nil {
		return model.ConnectionKey{}, apperror.Wrap(apperror.CodeInvalidArgument, "invalid printer", err)
	}
	return key, nil
}

func requireCallback(id string) error {
	if id == "" {
		return apperror.InvalidArgument("callback is required")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
