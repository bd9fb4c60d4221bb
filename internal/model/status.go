// internal/model/status.go
package model

// DrawerOpenedMethod records how a drawer was opened
type DrawerOpenedMethod string

const (
	DrawerOpenedByHand    DrawerOpenedMethod = "byHand"
	DrawerOpenedByCommand DrawerOpenedMethod = "byCommand"
)

// PrinterStatus is the structured status record returned by getStatus
type PrinterStatus struct {
	HasError              bool         `json:"hasError"`
	CoverOpen             bool         `json:"coverOpen"`
	DrawerOpenCloseSignal bool         `json:"drawerOpenCloseSignal"`
	PaperEmpty            bool         `json:"paperEmpty"`
	PaperNearEmpty        bool         `json:"paperNearEmpty"`
	Reserved              JSONObject   `json:"reserved"`
	Detail                StatusDetail `json:"detail"`
}

// StatusDetail carries the detailed flags. A nil field means the printer
// or transport cannot report it.
type StatusDetail struct {
	CleaningNotification         *bool               `json:"cleaningNotification"`
	CutterError                  *bool               `json:"cutterError"`
	DetectedPaperWidth           *float64            `json:"detectedPaperWidth"`
	Drawer1OpenCloseSignal       *bool               `json:"drawer1OpenCloseSignal"`
	Drawer1OpenedMethod          *DrawerOpenedMethod `json:"drawer1OpenedMethod"`
	Drawer2OpenCloseSignal       *bool               `json:"drawer2OpenCloseSignal"`
	Drawer2OpenedMethod          *DrawerOpenedMethod `json:"drawer2OpenedMethod"`
	DrawerOpenError              *bool               `json:"drawerOpenError"`
	ExternalDevice1Connected     *bool               `json:"externalDevice1Connected"`
	ExternalDevice2Connected     *bool               `json:"externalDevice2Connected"`
	PaperJamError                *bool               `json:"paperJamError"`
	PaperPresent                 *bool               `json:"paperPresent"`
	PaperSeparatorError          *bool               `json:"paperSeparatorError"`
	PartsReplacementNotification *bool               `json:"partsReplacementNotification"`
	PrintUnitOpen                *bool               `json:"printUnitOpen"`
	RollPositionError            *bool               `json:"rollPositionError"`
}

// Bool returns a pointer to b, for filling optional status fields
func Bool(b bool) *bool {
	return &b
}
