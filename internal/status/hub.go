package status

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	// backlog is how many recent messages a new client receives
	backlog = 32
)

// client is one connected page
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(data)
}

// write sends one frame; the caller holds mu
func (c *client) write(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub broadcasts status messages to websocket clients. It is a Reporter.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	recent  [][]byte

	messagesSent atomic.Uint64
}

// NewHub creates an empty hub
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Report encodes msg and sends it to every client
func (h *Hub) Report(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode status", slog.Any("err", err))
		return
	}

	h.mu.Lock()
	h.recent = append(h.recent, data)
	if len(h.recent) > backlog {
		h.recent = h.recent[len(h.recent)-backlog:]
	}
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(data); err != nil {
			h.log.Debug("status send failed", slog.String("client", c.id), slog.Any("err", err))
			h.drop(c)
			continue
		}
		h.messagesSent.Add(1)
	}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("status upgrade failed", slog.Any("err", err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}

	// broadcasts to c wait on c.mu until the backlog is out
	c.mu.Lock()
	h.mu.Lock()
	pending := append([][]byte(nil), h.recent...)
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("status client connected", slog.String("client", c.id), slog.Int("clients", count))
	defer h.drop(c)

	for _, data := range pending {
		if err := c.write(data); err != nil {
			c.mu.Unlock()
			return
		}
	}
	c.mu.Unlock()

	// Pages never send anything meaningful; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
		h.log.Debug("status client disconnected", slog.String("client", c.id))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MessagesSent returns how many messages were delivered across all clients
func (h *Hub) MessagesSent() uint64 {
	return h.messagesSent.Load()
}
