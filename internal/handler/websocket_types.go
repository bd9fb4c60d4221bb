// internal/handler/websocket_types.go
package handler

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"printer-bridge/internal/model"
	"printer-bridge/internal/utils"
)

// WebSocket message types
const (
	MessageTypeCall        = "call"
	MessageTypeResult      = "result"
	MessageTypeError       = "error"
	MessageTypeEvent       = "event"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeSubscribed  = "subscription_confirmed"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

var (
	errClientClosed    = errors.New("websocket client closed")
	errSendBufferFull  = errors.New("websocket send buffer full")
	clientSendCapacity = 256
)

// WebSocketMessage is the envelope for every frame in both directions. ID
// correlates a call with its result or error.
type WebSocketMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	Error     *utils.APIError `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client is a connected WebSocket peer. It is also the callback sink for the
// callback ids it registers.
type Client struct {
	ClientID    string    `json:"id"`
	UserAgent   string    `json:"user_agent"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`

	conn *websocket.Conn
	send chan []byte

	mu            sync.Mutex
	closed        bool
	subscriptions map[string]bool
}

func newClient(id string, conn *websocket.Conn, userAgent, remoteAddr string) *Client {
	return &Client{
		ClientID:      id,
		UserAgent:     userAgent,
		RemoteAddr:    remoteAddr,
		ConnectedAt:   time.Now(),
		conn:          conn,
		send:          make(chan []byte, clientSendCapacity),
		subscriptions: make(map[string]bool),
	}
}

// ID identifies the client as a callback sink
func (c *Client) ID() string { return c.ClientID }

// Deliver queues a push event for the client. It never blocks.
func (c *Client) Deliver(event model.Event) error {
	return c.enqueue(&WebSocketMessage{
		Type:      MessageTypeEvent,
		ID:        event.GUID,
		Data:      event,
		Timestamp: time.Now(),
	})
}

func (c *Client) enqueue(message *WebSocketMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) subscribe(callbackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[callbackID] = true
}

func (c *Client) unsubscribe(callbackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, callbackID)
}

// Subscriptions returns the callback ids the client subscribed to explicitly
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

// close stops the writer. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ConnectionManager tracks connected WebSocket clients
type ConnectionManager struct {
	mutex   sync.RWMutex
	clients map[string]*Client
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ClientID] = client
}

// Unregister removes a client and stops its writer
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	delete(cm.clients, client.ClientID)
	cm.mutex.Unlock()
	client.close()
}

// CloseAll disconnects every client
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	clients := make([]*Client, 0, len(cm.clients))
	for id, client := range cm.clients {
		clients = append(clients, client)
		delete(cm.clients, id)
	}
	cm.mutex.Unlock()

	for _, client := range clients {
		client.close()
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}
	for _, client := range cm.clients {
		stats.Clients = append(stats.Clients, client)
	}
	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int       `json:"total_connections"`
	Clients          []*Client `json:"clients"`
}
