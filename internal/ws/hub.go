// Package ws pushes live runtime samples to dashboard browsers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aaronlmathis/hostwatch/internal/metrics"
)

// HealthRecorder receives connection and message counts
type HealthRecorder interface {
	SetWSClientCount(count int64)
	RecordWSMessage()
	RecordDroppedWSMessage()
}

// Hub maintains the set of active clients and broadcasts messages to rooms
type Hub struct {
	logger *zap.Logger
	health HealthRecorder

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	maxConnections int
	maxRoomSize    int
}

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
	room string
}

// Message is the envelope of every pushed frame
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Room string      `json:"room,omitempty"`
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Browsers only send control frames
	maxMessageSize = 512

	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a new WebSocket hub. health may be nil.
func NewHub(logger *zap.Logger, health HealthRecorder, maxConnections, maxRoomSize int) *Hub {
	return &Hub{
		logger:         logger,
		health:         health,
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		maxConnections: maxConnections,
		maxRoomSize:    maxRoomSize,
	}
}

// Run processes registrations until ctx is cancelled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.dropLocked(client)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.reportCountLocked()
			h.mu.Unlock()

			metrics.RecordWebSocketConnection(streamType(client.room))
			h.logger.Info("Client registered",
				zap.String("id", client.id),
				zap.String("room", client.room))

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// BroadcastToRoom sends a message to all clients in a room. Clients whose
// send buffer is full are disconnected.
func (h *Hub) BroadcastToRoom(room string, messageType string, data interface{}) {
	msgBytes, err := json.Marshal(Message{Type: messageType, Data: data, Room: room})
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	// Sends happen under the read lock so a concurrent removal cannot close
	// a channel mid-send
	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if client.room != room {
			continue
		}
		select {
		case client.send <- msgBytes:
			if h.health != nil {
				h.health.RecordWSMessage()
			}
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Removing unresponsive WebSocket client",
			zap.String("clientId", client.id),
			zap.String("room", room))
		if h.health != nil {
			h.health.RecordDroppedWSMessage()
		}
		h.removeClient(client)
	}
}

// removeClient safely removes a client from the hub
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, exists := h.clients[client]; !exists {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.reportCountLocked()

	metrics.RecordWebSocketDisconnection(streamType(client.room))
	h.logger.Info("Client unregistered",
		zap.String("id", client.id),
		zap.String("room", client.room))
}

func (h *Hub) reportCountLocked() {
	if h.health != nil {
		h.health.SetWSClientCount(int64(len(h.clients)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients subscribed to room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.room == room {
			n++
		}
	}
	return n
}

// ServeWS upgrades the request and subscribes the connection to room
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string) {
	if total := h.ClientCount(); total >= h.maxConnections {
		h.logger.Warn("WebSocket connection rejected - total connection limit reached",
			zap.Int("current", total),
			zap.Int("limit", h.maxConnections))
		http.Error(w, "Connection limit reached", http.StatusServiceUnavailable)
		return
	}

	if inRoom := h.RoomSize(room); inRoom >= h.maxRoomSize {
		h.logger.Warn("WebSocket connection rejected - room connection limit reached",
			zap.String("room", room),
			zap.Int("current", inRoom),
			zap.Int("limit", h.maxRoomSize))
		http.Error(w, "Room connection limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
		room: room,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains control frames and detects disconnects
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("Unexpected WebSocket close", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection, one
// frame per message
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RoomForClient names the room carrying a monitored host's live samples
func RoomForClient(clientID string) string {
	return "runtime:" + clientID
}

// streamType strips the client ID so metric labels stay low-cardinality
func streamType(room string) string {
	kind, _, _ := strings.Cut(room, ":")
	return kind
}
