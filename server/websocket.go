package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dotside-studios/davi-tap-lab/protocol"
)

// Conn is a client websocket connection. gorilla/websocket allows one
// concurrent writer, so every write goes through the mutex.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteJSON sends v as a single text frame.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// SendSuccess answers req with a successful response.
func (c *Conn) SendSuccess(req protocol.WebSocketRequest, payload any) error {
	return c.WriteJSON(protocol.WebSocketResponse{
		ID:      req.ID,
		Type:    req.Type,
		Success: true,
		Payload: payload,
	})
}

// SendError answers the request with the given ID with a structured error.
func (c *Conn) SendError(requestID, responseType, code, message string) error {
	if responseType == "" {
		responseType = protocol.WSTypeError
	}
	return c.WriteJSON(protocol.WebSocketResponse{
		ID:      requestID,
		Type:    responseType,
		Success: false,
		Error:   &protocol.ErrorInfo{Code: code, Message: message},
	})
}

// WebsocketClientManager tracks connected clients and fans messages out to
// them.
type WebsocketClientManager struct {
	clients map[*Conn]bool
	mu      sync.RWMutex
}

func NewClientManager() *WebsocketClientManager {
	return &WebsocketClientManager{
		clients: make(map[*Conn]bool),
	}
}

// Register adds a new client connection.
func (cm *WebsocketClientManager) Register(conn *Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[conn] = true
}

// Unregister removes a client connection.
func (cm *WebsocketClientManager) Unregister(conn *Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, conn)
}

// Count returns the number of connected clients.
func (cm *WebsocketClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// CloseAll closes all client connections.
func (cm *WebsocketClientManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for client := range cm.clients {
		client.Close()
		delete(cm.clients, client)
	}
}

// Broadcast sends message to every client and drops clients that fail.
func (cm *WebsocketClientManager) Broadcast(message protocol.WebSocketMessage) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for client := range cm.clients {
		if err := client.WriteJSON(message); err != nil {
			logger.Printf("WebSocket write error: %v", err)
			client.Close()
			delete(cm.clients, client)
		}
	}
}
