// internal/driver/escpos/status.go
package escpos

import (
	"printer-bridge/internal/model"
)

// Real-time status replies (DLE EOT n) all have bit 1 and bit 4 set and
// bits 0 and 7 clear, which tells them apart from input device data
func isStatusByte(b byte) bool {
	return b&0x93 == 0x12
}

// statusReply holds the four DLE EOT replies; a zero value means no reply
type statusReply struct {
	printer byte // n=1
	offline byte // n=2
	errors  byte // n=3
	paper   byte // n=4
}

func (r statusReply) has(b byte) bool { return b != 0 }

// parseStatus maps the replies onto the status record. Fields the replies do
// not cover stay nil.
func parseStatus(r statusReply) *model.PrinterStatus {
	status := &model.PrinterStatus{
		Reserved: model.JSONObject{
			"raw": []int{int(r.printer), int(r.offline), int(r.errors), int(r.paper)},
		},
	}

	offline := r.printer&0x08 != 0
	drawerSignal := r.printer&0x04 != 0
	status.DrawerOpenCloseSignal = drawerSignal
	status.Detail.Drawer1OpenCloseSignal = model.Bool(drawerSignal)
	status.Reserved["offline"] = offline

	if r.has(r.offline) {
		status.CoverOpen = r.offline&0x04 != 0
		status.Detail.PrintUnitOpen = model.Bool(status.CoverOpen)
		status.Reserved["paperFeedButton"] = r.offline&0x08 != 0
		if r.offline&0x20 != 0 {
			status.PaperEmpty = true
		}
		if r.offline&0x40 != 0 {
			status.HasError = true
		}
	}

	if r.has(r.errors) {
		cutter := r.errors&0x08 != 0
		unrecoverable := r.errors&0x20 != 0
		autoRecoverable := r.errors&0x40 != 0
		status.Detail.CutterError = model.Bool(cutter)
		status.Reserved["unrecoverableError"] = unrecoverable
		status.Reserved["autoRecoverableError"] = autoRecoverable
		if cutter || unrecoverable || autoRecoverable {
			status.HasError = true
		}
	}

	if r.has(r.paper) {
		status.PaperNearEmpty = r.paper&0x0C == 0x0C
		if r.paper&0x60 == 0x60 {
			status.PaperEmpty = true
		}
	}

	if r.has(r.offline) || r.has(r.paper) {
		status.Detail.PaperPresent = model.Bool(!status.PaperEmpty)
	}
	if status.CoverOpen || status.PaperEmpty {
		status.HasError = true
	}

	return status
}

// ready reports whether a printer with this status can print
func ready(status *model.PrinterStatus) bool {
	return !status.HasError
}
