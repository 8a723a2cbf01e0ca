// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"macmon/internal/engine"
	"macmon/internal/model"
	"macmon/internal/utils"
)

// WebSocketHandler manages WebSocket connections for real-time monitor
// event delivery.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	engine      *engine.Engine
	logger      *utils.ServiceLogger
	eventBus    *EventBus
}

// NewWebSocketHandler creates a new WebSocket handler consuming the given
// event bus.
func NewWebSocketHandler(eng *engine.Engine, eventBus *EventBus, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Local-tooling service; origin restriction happens via CORS
			// configuration on the REST surface.
			return true
		},
	}

	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		engine:      eng,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
		eventBus:    eventBus,
	}

	go handler.distributeEvents()

	return handler
}

// distributeEvents pumps bus events out to all connected clients.
func (h *WebSocketHandler) distributeEvents() {
	for event := range h.eventBus.Events() {
		h.broadcastEvent(event)
	}
}

// HandleEventConnection upgrades a client onto the monitor event stream.
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Event WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.sendInitialState(client)
	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// sendInitialState pushes the current monitor snapshot so a client does not
// need a separate REST round trip after connecting.
func (h *WebSocketHandler) sendInitialState(client *Client) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "initial_state",
		Data:      h.engine.State(),
		Timestamp: time.Now(),
	})
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Error("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe":
		h.handleSubscription(client, message)
	case "unsubscribe":
		h.handleUnsubscription(client, message)
	case "monitor_command":
		h.handleMonitorCommand(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
	}
}

// handleSubscription narrows a client's event feed to selected event types.
// A client with no subscriptions receives everything.
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	if client.Subscriptions == nil {
		client.Subscriptions = make(map[string]bool)
	}

	if data, ok := message.Data.(map[string]interface{}); ok {
		if topic, ok := data["topic"].(string); ok {
			client.Subscriptions[topic] = true
			h.logger.Info("Client subscribed to topic",
				zap.String("client_id", client.ID),
				zap.String("topic", topic),
			)

			h.sendMessage(client, &WebSocketMessage{
				Type: "subscription_confirmed",
				Data: map[string]interface{}{
					"topic": topic,
				},
				Timestamp: time.Now(),
			})
		}
	}
}

// handleUnsubscription handles client unsubscription requests
func (h *WebSocketHandler) handleUnsubscription(client *Client, message *WebSocketMessage) {
	if client.Subscriptions == nil {
		return
	}

	if data, ok := message.Data.(map[string]interface{}); ok {
		if topic, ok := data["topic"].(string); ok {
			delete(client.Subscriptions, topic)
			h.logger.Info("Client unsubscribed from topic",
				zap.String("client_id", client.ID),
				zap.String("topic", topic),
			)
		}
	}
}

// handleMonitorCommand handles monitor control messages
func (h *WebSocketHandler) handleMonitorCommand(client *Client, message *WebSocketMessage) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		h.sendError(client, "invalid command data")
		return
	}

	command, ok := data["command"].(string)
	if !ok {
		h.sendError(client, "command is required")
		return
	}

	var result interface{}
	switch command {
	case "start":
		result = map[string]interface{}{"started": h.engine.StartMonitoring()}
	case "stop":
		result = map[string]interface{}{"stopped": h.engine.StopMonitoring()}
	case "status":
		result = h.engine.State()
	default:
		h.sendError(client, fmt.Sprintf("unknown command: %s", command))
		return
	}

	h.sendMessage(client, &WebSocketMessage{
		Type: "command_response",
		Data: map[string]interface{}{
			"command": command,
			"success": true,
			"result":  result,
		},
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "error",
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
	})
}

// broadcastEvent delivers one monitor event to every connected client,
// honoring per-client topic subscriptions.
func (h *WebSocketHandler) broadcastEvent(event model.MonitorEvent) {
	message := &WebSocketMessage{
		Type:      "monitor_event",
		Data:      event,
		Timestamp: event.Timestamp,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	for _, client := range h.connections.GetClients() {
		if len(client.Subscriptions) > 0 && !client.Subscriptions[string(event.EventType)] {
			continue
		}

		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full during broadcast",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
