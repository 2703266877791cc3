package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/log"
)

const (
	// DefaultBroadcastInterval matches the position refresh period.
	DefaultBroadcastInterval = 100 * time.Millisecond
	writeWait                = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local control surface
	},
}

// StatusProvider supplies status snapshots.
type StatusProvider interface {
	Status() app.Status
}

// wsClient serialises writes to one connection.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// StatusHub pushes app status to WebSocket clients at /api/live. A client gets
// the current status on connect and then every change.
type StatusHub struct {
	provider StatusProvider
	interval time.Duration

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewStatusHub creates a hub that polls provider every interval.
// A zero interval uses DefaultBroadcastInterval.
func NewStatusHub(provider StatusProvider, interval time.Duration) *StatusHub {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &StatusHub{
		provider: provider,
		interval: interval,
		clients:  make(map[*wsClient]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *StatusHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn}
	msg, err := json.Marshal(h.provider.Status())
	if err == nil {
		err = c.send(msg)
	}
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer h.remove(c)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StatusHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Run broadcasts status changes until ctx is cancelled.
func (h *StatusHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		s := h.provider.Status()
		updated := s.UpdatedAt
		s.UpdatedAt = time.Time{}
		key, err := json.Marshal(s)
		if err != nil {
			log.Warn("encoding status", "error", err)
			continue
		}
		if string(key) == string(last) {
			continue
		}
		last = key

		s.UpdatedAt = updated
		msg, _ := json.Marshal(s)
		h.broadcast(msg)
	}
}

func (h *StatusHub) broadcast(msg []byte) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			log.Debug("dropping websocket client", "error", err)
			h.remove(c)
			c.conn.Close()
		}
	}
}

func (h *StatusHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
