package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/scoreturner/internal/dispatch"
	"github.com/ayusman/scoreturner/internal/log"
	"github.com/ayusman/scoreturner/internal/session"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is what the hub sends to websocket clients.
type Message struct {
	Type string `json:"type"` // "status" or "gesture"

	Status *session.Status `json:"status,omitempty"`

	Gesture     string `json:"gesture,omitempty"`
	AtMs        int64  `json:"at_ms,omitempty"`
	Command     string `json:"command,omitempty"`
	Page        int    `json:"page"`
	PageCount   int    `json:"page_count"`
	Moved       bool   `json:"moved,omitempty"`
	PluginError string `json:"plugin_error,omitempty"`
}

func gestureMessage(r dispatch.Result) Message {
	return Message{
		Type:        "gesture",
		Gesture:     r.Event.Kind.String(),
		AtMs:        r.Event.AtMs,
		Command:     string(r.Command),
		Page:        r.Page,
		PageCount:   r.PageCount,
		Moved:       r.Moved,
		PluginError: r.PluginError,
	}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub pushes fired gestures to every connected websocket client. A new client
// first receives the current session status.
type Hub struct {
	status      func() session.Status
	clients     map[*client]bool
	mu          sync.RWMutex
	unsubscribe func()
}

// NewHub creates a hub. status supplies the greeting for new clients.
func NewHub(status func() session.Status) *Hub {
	return &Hub{
		status:  status,
		clients: make(map[*client]bool),
	}
}

// Attach subscribes the hub to a dispatcher.
func (h *Hub) Attach(d *dispatch.Dispatcher) {
	h.unsubscribe = d.Subscribe(func(r dispatch.Result) {
		h.Broadcast(gestureMessage(r))
	})
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}

	if h.status != nil {
		st := h.status()
		data, _ := json.Marshal(Message{Type: "status", Status: &st})
		if err := c.send(data); err != nil {
			return
		}
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends msg to all clients. Clients that fail the write are
// dropped on their next read.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if err := c.send(data); err != nil {
			log.Debug("websocket write failed", "error", err)
			c.conn.Close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches from the dispatcher and disconnects all clients.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}
