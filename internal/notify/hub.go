package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

const writeWait = 10 * time.Second

// client is one connected subscriber. All frames for a connection, data and
// pings alike, are written by its writePump: gorilla permits at most one
// concurrent writer per connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket connections and pushes ledger and simulation events
// to all connected clients.
type Hub struct {
	clients      map[*client]bool
	broadcast    chan []byte
	register     chan *client
	unregister   chan *client
	pingInterval time.Duration
	mu           sync.RWMutex
}

// Compile-time interface check
var _ interfaces.Notifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*client]bool),
		broadcast:    make(chan []byte, 256),
		register:     make(chan *client),
		unregister:   make(chan *client),
		pingInterval: 30 * time.Second,
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	ctx := context.Background()
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info(ctx, "WebSocket client connected", "total", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				c.conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: drop it rather than stall the fan-out.
					delete(h.clients, c)
					close(c.send)
					c.conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to all connected clients. Drops the event if the
// broadcast buffer is full so ledger mutations never block on slow clients.
func (h *Hub) Publish(event types.Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWS handles WebSocket upgrade requests at GET /ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorWithErr(ctx, "WebSocket upgrade failed", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	h.register <- c

	go h.writePump(c)

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- c }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// writePump drains the client's send buffer and emits keepalive pings. It is
// the only goroutine that writes to the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		h.unregister <- c
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub dropped this client and closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Serve starts an HTTP server exposing the hub at /ws. It runs until the
// server fails and is meant to be called in a goroutine.
func (h *Hub) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	logger.Info(context.Background(), "Notification server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
