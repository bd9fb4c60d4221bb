package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
	"printer-bridge/internal/session"
)

func call(t *testing.T, f *fixture, method, args string) (interface{}, error) {
	t.Helper()
	return f.service.Call(context.Background(), method, json.RawMessage(args), fakeSink{id: "client-1"})
}

func TestCallUnknownMethod(t *testing.T) {
	f := newFixture(t)

	_, err := call(t, f, "formatDisk", `{}`)
	assert.ErrorIs(t, err, apperror.ErrNotImplemented)
}

func TestCallInvalidArguments(t *testing.T) {
	f := newFixture(t)

	_, err := call(t, f, MethodOpenConnection, `{"printer":`)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = call(t, f, MethodOpenConnection, `{}`)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = call(t, f, MethodGetStatus, `{"printer":{"interface":"urb","identifier":"x"}}`)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = call(t, f, MethodMonitor, `{"printer":`+btPrinterJSON+`}`)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument, "callback is required")
}

func TestOpenConnection(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodOpenConnection, `{"printer":`+lanPrinterJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	// Opening again is still a success
	result, err = call(t, f, MethodOpenConnection, `{"printer":`+lanPrinterJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	op := f.lastRecord(t)
	assert.Equal(t, MethodOpenConnection, op.Method)
	assert.Equal(t, model.OperationStatusSuccess, op.Status)
	require.NotNil(t, op.ConnectionKey)
	assert.Equal(t, "lan:192.168.1.20", *op.ConnectionKey)
}

func TestOpenConnectionFailureIsFalse(t *testing.T) {
	f := newFixture(t)
	f.fake(lanKey).openErr = errLink

	result, err := call(t, f, MethodOpenConnection, `{"printer":`+lanPrinterJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, false, result)

	op := f.lastRecord(t)
	assert.Equal(t, model.OperationStatusFailed, op.Status)
	require.NotNil(t, op.ErrorCode)
	assert.Equal(t, string(apperror.CodeConnectionOpenFailure), *op.ErrorCode)
}

func TestCloseConnectionFailureIsFalse(t *testing.T) {
	f := newFixture(t)
	f.fake(btKey).closeErr = errLink

	result, err := call(t, f, MethodCloseConnection, `{"printer":`+btPrinterJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestPrintDocumentLAN(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodPrintDocument, `{"printer":`+lanPrinterJSON+`,"document":`+receiptJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"open", "print", "close"}, f.fake(lanKey).Calls())

	op := f.lastRecord(t)
	assert.Equal(t, model.OperationStatusSuccess, op.Status)
	assert.Equal(t, 1, op.Attempts)
}

func TestPrintDocumentBluetoothRetry(t *testing.T) {
	f := newFixture(t)
	f.fake(btKey).printErrs = []error{errLink}

	result, err := call(t, f, MethodPrintDocument, `{"printer":`+btPrinterJSON+`,"document":`+receiptJSON+`}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"open", "print", "close", "open", "print"}, f.fake(btKey).Calls())
	assert.Equal(t, 2, f.lastRecord(t).Attempts)
}

func TestPrintDocumentBluetoothGivesUp(t *testing.T) {
	f := newFixture(t)
	f.fake(btKey).printErrs = []error{errLink, errLink}

	_, err := call(t, f, MethodPrintDocument, `{"printer":`+btPrinterJSON+`,"document":`+receiptJSON+`}`)
	assert.ErrorIs(t, err, apperror.ErrVendorCommunicationFailure)

	op := f.lastRecord(t)
	assert.Equal(t, model.OperationStatusFailed, op.Status)
	assert.Equal(t, 2, op.Attempts)
}

func TestPrintDocumentCompileFailureNeverConnects(t *testing.T) {
	f := newFixture(t)

	doc := `{"contents":[{"type":"print","data":{"actions":[{"action":"printText"}]}}]}`
	_, err := call(t, f, MethodPrintDocument, `{"printer":`+btPrinterJSON+`,"document":`+doc+`}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrCommandCompileFailure)
	assert.Contains(t, err.Error(), "text")
	assert.Empty(t, f.fake(btKey).Calls())

	_, err = call(t, f, MethodPrintDocument, `{"printer":`+btPrinterJSON+`}`)
	assert.ErrorIs(t, err, apperror.ErrCommandCompileFailure)
}

func TestUpdateDisplayJournaledUnderItsName(t *testing.T) {
	f := newFixture(t)

	doc := `{"contents":[{"type":"display","data":{"actions":[{"action":"clearAll"},{"action":"showText","data":"Total 4.50"}]}}]}`
	result, err := call(t, f, MethodUpdateDisplay, `{"printer":`+lanPrinterJSON+`,"document":`+doc+`}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, MethodUpdateDisplay, f.lastRecord(t).Method)
}

func TestPrintRawBytes(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodPrintRawBytes, `{"printer":`+lanPrinterJSON+`,"bytes":"G0A="}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"open", "printRaw", "close"}, f.fake(lanKey).Calls())
	assert.Equal(t, []byte{0x1b, 0x40}, f.fake(lanKey).raw)

	_, err = call(t, f, MethodPrintRawBytes, `{"printer":`+btPrinterJSON+`,"bytes":[27,64]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "printRaw"}, f.fake(btKey).Calls(), "bluetooth stays open")
}

func TestPrintRawBytesWithoutBytes(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodPrintRawBytes, `{"printer":`+lanPrinterJSON+`,"bytes":null}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, []string{"open", "close"}, f.fake(lanKey).Calls())

	_, err = call(t, f, MethodPrintRawBytes, `{"printer":`+lanPrinterJSON+`,"bytes":[300]}`)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodGetStatus, `{"printer":`+btPrinterJSON+`}`)
	require.NoError(t, err)
	status, ok := result.(*model.PrinterStatus)
	require.True(t, ok)
	assert.True(t, status.CoverOpen)
	assert.Equal(t, []string{"open", "status", "close"}, f.fake(btKey).Calls())
}

func TestFindPrinters(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodFindPrinters, `{"interfaces":["lan","usb","nfc"],"timeout":20,"callback":"find-1"}`)
	require.NoError(t, err)

	found, ok := result.(*FindPrintersResult)
	require.True(t, ok)
	require.Len(t, found.Printers, 1)
	assert.Equal(t, model.ModelTSP100IIILAN, found.Printers[0].Model)

	sink, ok := f.callbacks.Lookup("find-1")
	require.True(t, ok)
	assert.Equal(t, "client-1", sink.ID())

	events := f.emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPrinterFound, events[0].Type)
	assert.Equal(t, "find-1", events[0].GUID)
}

func TestFindPrintersEmptyResult(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodFindPrinters, `{"interfaces":["usb"],"timeout":10}`)
	require.NoError(t, err)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"printers":[]}`, string(encoded))
}

func TestInputListenerLifecycle(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodStartInputListener, `{"printer":`+btPrinterJSON+`,"callback":"scan-1"}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)
	_, bound := f.callbacks.Lookup("scan-1")
	assert.True(t, bound)

	f.fake(btKey).closeErr = errLink
	result, err = call(t, f, MethodStopInputListener, `{"printer":`+btPrinterJSON+`,"callback":"scan-1"}`)
	require.NoError(t, err)
	assert.Equal(t, true, result, "close failures do not fail stopInputListener")
	_, bound = f.callbacks.Lookup("scan-1")
	assert.False(t, bound)
}

func TestMonitorNonBluetooth(t *testing.T) {
	f := newFixture(t)

	result, err := call(t, f, MethodMonitor, `{"printer":`+lanPrinterJSON+`,"callback":"mon-1"}`)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	events := f.emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventMonitor, events[0].Type)
	assert.Equal(t, session.MessageNotBluetooth, events[0].Data["message"])
}

func TestSessionsSnapshot(t *testing.T) {
	f := newFixture(t)

	_, err := call(t, f, MethodOpenConnection, `{"printer":`+btPrinterJSON+`}`)
	require.NoError(t, err)

	snapshots := f.service.Sessions()
	require.Len(t, snapshots, 1)
	assert.Equal(t, "bluetooth:/dev/rfcomm0", snapshots[0].Key)
	assert.True(t, snapshots[0].Persistent)
	assert.Equal(t, session.StateOpen, snapshots[0].State)
}
