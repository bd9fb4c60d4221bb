// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/utils"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsWriteWait  = 10 * time.Second
)

// WebSocketHandler serves bridge method calls and push events over one
// WebSocket per client
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	caller      MethodCaller
	callbacks   *callback.Registry
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty
// allowedOrigins accepts every origin.
func NewWebSocketHandler(caller MethodCaller, callbacks *callback.Registry, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		connections: NewConnectionManager(),
		caller:      caller,
		callbacks:   callbacks,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// HandleConnection upgrades the request and serves the client
// @Summary Bridge WebSocket
// @Description Accepts call, subscribe, unsubscribe and ping messages; sends result, error, event and pong messages
// @Tags WebSocket
// @Router /ws [get]
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := newClient(uuid.New().String(), conn, c.Request.UserAgent(), c.Request.RemoteAddr)
	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ClientID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// GetStats returns connected client statistics
// @Summary WebSocket clients
// @Tags WebSocket
// @Produce json
// @Success 200 {object} utils.APIResponse{data=ConnectionStats} "Connection statistics"
// @Router /ws/stats [get]
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection statistics", h.connections.GetStats())
}

// CloseAll disconnects every client
func (h *WebSocketHandler) CloseAll() {
	h.connections.CloseAll()
}

// handleClientRead reads messages until the connection fails, then releases
// every callback id bound to the client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		released := h.callbacks.UnregisterSink(client)
		h.connections.Unregister(client)
		client.conn.Close()
		h.logger.Info("WebSocket client disconnected",
			zap.String("client_id", client.ClientID),
			zap.Int("released_callbacks", len(released)),
		)
	}()

	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ClientID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "", apperror.Wrap(apperror.CodeInvalidArgument, "invalid message", err))
			continue
		}

		h.handleClientMessage(ctx, client, &message)
	}
}

// handleClientWrite writes queued messages and keeps the connection alive
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ClientID),
				)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleClientMessage(ctx context.Context, client *Client, message *WebSocketMessage) {
	switch message.Type {
	case MessageTypeCall:
		// Calls run concurrently so a long discovery does not hold up the
		// client's other requests
		go h.handleCall(ctx, client, message)
	case MessageTypeSubscribe:
		h.handleSubscription(client, message, true)
	case MessageTypeUnsubscribe:
		h.handleSubscription(client, message, false)
	case MessageTypePing:
		h.send(client, &WebSocketMessage{Type: MessageTypePong, ID: message.ID, Timestamp: time.Now()})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ClientID),
		)
		h.sendError(client, message.ID, apperror.InvalidArgument("unknown message type "+message.Type))
	}
}

func (h *WebSocketHandler) handleCall(ctx context.Context, client *Client, message *WebSocketMessage) {
	result, err := h.caller.Call(ctx, message.Method, message.Args, client)
	if err != nil {
		h.logger.Warn("Method call failed",
			zap.String("client_id", client.ClientID),
			zap.String("method", message.Method),
			zap.Error(err),
		)
		h.sendError(client, message.ID, err)
		return
	}

	h.send(client, &WebSocketMessage{
		Type:      MessageTypeResult,
		ID:        message.ID,
		Method:    message.Method,
		Data:      result,
		Timestamp: time.Now(),
	})
}

// handleSubscription binds or releases a callback id for the client. This
// lets a client receive events for calls made over HTTP.
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage, subscribe bool) {
	data, _ := message.Data.(map[string]interface{})
	callbackID, _ := data["callback"].(string)
	if callbackID == "" {
		h.sendError(client, message.ID, apperror.InvalidArgument("callback is required"))
		return
	}

	if subscribe {
		h.callbacks.Register(callbackID, client)
		client.subscribe(callbackID)
		h.logger.Info("Client subscribed to callback",
			zap.String("client_id", client.ClientID),
			zap.String("callback", callbackID),
		)
		h.send(client, &WebSocketMessage{
			Type:      MessageTypeSubscribed,
			ID:        message.ID,
			Data:      map[string]interface{}{"callback": callbackID},
			Timestamp: time.Now(),
		})
		return
	}

	if sink, ok := h.callbacks.Lookup(callbackID); ok && sink.ID() == client.ClientID {
		h.callbacks.Unregister(callbackID)
	}
	client.unsubscribe(callbackID)
}

func (h *WebSocketHandler) sendError(client *Client, id string, err error) {
	appErr := apperror.From(err)
	apiErr := &utils.APIError{Code: string(appErr.Code), Message: appErr.Message}
	if appErr.Err != nil {
		apiErr.Details = appErr.Err.Error()
	}
	h.send(client, &WebSocketMessage{
		Type:      MessageTypeError,
		ID:        id,
		Error:     apiErr,
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) send(client *Client, message *WebSocketMessage) {
	if err := client.enqueue(message); err != nil {
		h.logger.Warn("Failed to queue WebSocket message",
			zap.String("client_id", client.ClientID),
			zap.String("type", message.Type),
			zap.Error(err),
		)
	}
}
