// internal/model/event.go
package model

import (
	"time"
)

// EventType represents the type of a push event
type EventType string

const (
	EventPrinterFound         EventType = "printerFound"
	EventDataReceived         EventType = "dataReceived"
	EventOnReady              EventType = "onReady"
	EventOnError              EventType = "onError"
	EventOnCommunicationError EventType = "onCommunicationError"
	EventMonitor              EventType = "monitor"
)

// UpdateType is the connection state reported by monitor style events
type UpdateType string

const (
	UpdateConnected    UpdateType = "connected"
	UpdateError        UpdateType = "error"
	UpdateDisconnected UpdateType = "disconnected"
)

// Event is the push envelope delivered to a registered callback
type Event struct {
	GUID      string     `json:"guid"`
	Type      EventType  `json:"type"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEvent builds an event for the given correlation id
func NewEvent(guid string, eventType EventType, data JSONObject) Event {
	return Event{
		GUID:      guid,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ConnectionUpdate builds the {updateType, message} payload used by monitor events
func ConnectionUpdate(update UpdateType, message string) JSONObject {
	return JSONObject{
		"updateType": string(update),
		"message":    message,
	}
}

// PrinterFoundData builds the printerFound payload
func PrinterFoundData(p DiscoveredPrinter) JSONObject {
	return JSONObject{
		"model":      string(p.Model),
		"identifier": p.Identifier,
		"interface":  string(p.Interface),
	}
}

// DataReceivedData builds the dataReceived payload. data is a list of byte
// values so JSON consumers get numbers rather than base64.
func DataReceivedData(data []byte) JSONObject {
	values := make([]int, len(data))
	for i, b := range data {
		values[i] = int(b)
	}
	return JSONObject{
		"data":   values,
		"string": string(data),
	}
}
