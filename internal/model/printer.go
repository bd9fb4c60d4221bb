// internal/model/printer.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// InterfaceKind represents how a printer is attached
type InterfaceKind string

const (
	InterfaceLAN         InterfaceKind = "lan"
	InterfaceBluetooth   InterfaceKind = "bluetooth"
	InterfaceBluetoothLE InterfaceKind = "bluetoothLE"
	InterfaceUSB         InterfaceKind = "usb"
	InterfaceUnknown     InterfaceKind = "unknown"
)

// ParseInterfaceKind classifies a caller supplied interface string.
// bluetoothLE is folded into bluetooth; anything unrecognised is unknown.
func ParseInterfaceKind(value string) InterfaceKind {
	switch InterfaceKind(value) {
	case InterfaceLAN:
		return InterfaceLAN
	case InterfaceBluetooth, InterfaceBluetoothLE:
		return InterfaceBluetooth
	case InterfaceUSB:
		return InterfaceUSB
	default:
		return InterfaceUnknown
	}
}

// IsPersistent reports whether sessions on this interface stay open across operations
func (k InterfaceKind) IsPersistent() bool {
	return k == InterfaceBluetooth || k == InterfaceBluetoothLE
}

// IsKnown reports whether the kind can back a session
func (k InterfaceKind) IsKnown() bool {
	switch k {
	case InterfaceLAN, InterfaceBluetooth, InterfaceUSB:
		return true
	}
	return false
}

// ConnectionKey identifies a physical printer address
type ConnectionKey struct {
	Interface  InterfaceKind `json:"interface"`
	Identifier string        `json:"identifier"`
}

// String renders the key as interface:identifier. The interface token never
// contains a colon so the encoding is unambiguous.
func (k ConnectionKey) String() string {
	return string(k.Interface) + ":" + k.Identifier
}

// ParseConnectionKey is the inverse of ConnectionKey.String
func ParseConnectionKey(value string) (ConnectionKey, error) {
	iface, identifier, ok := strings.Cut(value, ":")
	if !ok || identifier == "" {
		return ConnectionKey{}, fmt.Errorf("invalid connection key %q", value)
	}
	kind := ParseInterfaceKind(iface)
	if !kind.IsKnown() {
		return ConnectionKey{}, fmt.Errorf("invalid connection key %q: unsupported interface", value)
	}
	return ConnectionKey{Interface: kind, Identifier: identifier}, nil
}

// PrinterRef is the wire shape callers use to name a printer
type PrinterRef struct {
	Interface  string `json:"interface" binding:"required"`
	Identifier string `json:"identifier" binding:"required"`
}

// Key validates the reference and normalises it into a ConnectionKey
func (p PrinterRef) Key() (ConnectionKey, error) {
	kind := ParseInterfaceKind(p.Interface)
	if !kind.IsKnown() {
		return ConnectionKey{}, fmt.Errorf("unsupported printer interface %q", p.Interface)
	}
	identifier := strings.TrimSpace(p.Identifier)
	if identifier == "" {
		return ConnectionKey{}, fmt.Errorf("printer identifier is required")
	}
	return ConnectionKey{Interface: kind, Identifier: identifier}, nil
}

// PrinterModel is the reported model name of a discovered printer
type PrinterModel string

const (
	ModelTSP650II      PrinterModel = "tsp650II"
	ModelTSP700II      PrinterModel = "tsp700II"
	ModelTSP800II      PrinterModel = "tsp800II"
	ModelTSP100IIUPlus PrinterModel = "tsp100IIUPlus"
	ModelTSP100IIIW    PrinterModel = "tsp100IIIW"
	ModelTSP100IIILAN  PrinterModel = "tsp100IIILAN"
	ModelTSP100IIIBI   PrinterModel = "tsp100IIIBI"
	ModelTSP100IIIU    PrinterModel = "tsp100IIIU"
	ModelTSP100IV      PrinterModel = "tsp100IV"
	ModelMPOP          PrinterModel = "mPOP"
	ModelMCPrint2      PrinterModel = "mCPrint2"
	ModelMCPrint3      PrinterModel = "mCPrint3"
	ModelSMS210i       PrinterModel = "smS210i"
	ModelSMS230i       PrinterModel = "smS230i"
	ModelSMT300        PrinterModel = "smT300"
	ModelSMT300i       PrinterModel = "smT300i"
	ModelSMT400i       PrinterModel = "smT400i"
	ModelSML200        PrinterModel = "smL200"
	ModelSML300        PrinterModel = "smL300"
	ModelSP700         PrinterModel = "sp700"
	ModelUnknown       PrinterModel = "unknown"
)

var knownModels = []PrinterModel{
	ModelTSP650II, ModelTSP700II, ModelTSP800II, ModelTSP100IIUPlus,
	ModelTSP100IIIW, ModelTSP100IIILAN, ModelTSP100IIIBI, ModelTSP100IIIU,
	ModelTSP100IV, ModelMPOP, ModelMCPrint2, ModelMCPrint3, ModelSMS210i,
	ModelSMS230i, ModelSMT300, ModelSMT300i, ModelSMT400i, ModelSML200,
	ModelSML300, ModelSP700,
}

// MatchPrinterModel finds the model named in a free-form device description,
// such as an mDNS instance name, SNMP sysDescr or USB product string.
// Longer names win so "TSP100IIIW" is not reported as "TSP100IIIU".
func MatchPrinterModel(description string) PrinterModel {
	normalized := normalizeModelText(description)
	if normalized == "" {
		return ModelUnknown
	}

	best := ModelUnknown
	bestLen := 0
	consider := func(token string, m PrinterModel) {
		if len(token) > bestLen && strings.Contains(normalized, token) {
			best = m
			bestLen = len(token)
		}
	}
	for _, m := range knownModels {
		consider(normalizeModelText(string(m)), m)
	}
	for token, m := range modelAliases {
		consider(token, m)
	}
	return best
}

// modelAliases maps normalised sales names, as found in USB product strings
// and mDNS TXT records, to the model family they belong to
var modelAliases = map[string]PrinterModel{
	"tsp654":       ModelTSP650II,
	"tsp743":       ModelTSP700II,
	"tsp847":       ModelTSP800II,
	"tsp143iiu":    ModelTSP100IIUPlus,
	"tsp143iiiw":   ModelTSP100IIIW,
	"tsp143iiilan": ModelTSP100IIILAN,
	"tsp143iiibi":  ModelTSP100IIIBI,
	"tsp143iiiu":   ModelTSP100IIIU,
	"tsp143iv":     ModelTSP100IV,
	"pop10":        ModelMPOP,
	"mcp21":        ModelMCPrint2,
	"mcp31":        ModelMCPrint3,
	"sp742":        ModelSP700,
}

func normalizeModelText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DiscoveredPrinter is one discovery result
type DiscoveredPrinter struct {
	Model      PrinterModel  `json:"model"`
	Identifier string        `json:"identifier"`
	Interface  InterfaceKind `json:"interface"`
}

// Key returns the connection key that addresses this printer
func (p DiscoveredPrinter) Key() ConnectionKey {
	return ConnectionKey{Interface: p.Interface, Identifier: p.Identifier}
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONObject", value)
	}
	return json.Unmarshal(raw, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
