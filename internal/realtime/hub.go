// Package realtime pushes refresh hints to the open pages of a workspace.
package realtime

import (
	"sync"
	"time"

	"github.com/autonotions/autonotions/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Event struct {
	Type        string    `json:"type"`
	Kind        string    `json:"kind,omitempty"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]map[*client]bool)}
}

// Default is the hub used by the HTTP handlers.
var Default = NewHub()

func Broadcast(workspaceID uuid.UUID, kind string) {
	Default.Broadcast(workspaceID, kind)
}

func (h *Hub) register(workspaceID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[workspaceID] == nil {
		h.clients[workspaceID] = make(map[*client]bool)
	}
	h.clients[workspaceID][c] = true
	metrics.WebsocketConnections.Inc()
}

func (h *Hub) unregister(workspaceID uuid.UUID, c *client) {
	h.mu.Lock()
	clients, exists := h.clients[workspaceID]
	if exists && clients[c] {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, workspaceID)
		}
		metrics.WebsocketConnections.Dec()
	}
	h.mu.Unlock()

	c.conn.Close()
}

// Count returns the open connections of a workspace.
func (h *Hub) Count(workspaceID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[workspaceID])
}

// Broadcast sends a refresh hint to every connection of the workspace and
// drops the ones that fail.
func (h *Hub) Broadcast(workspaceID uuid.UUID, kind string) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[workspaceID]))
	for c := range h.clients[workspaceID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	event := Event{Type: "refresh", Kind: kind, WorkspaceID: workspaceID}

	for _, c := range clients {
		if err := c.write(event); err != nil {
			zap.L().Debug("dropping websocket client", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
			h.unregister(workspaceID, c)
		}
	}
}

// CloseAll disconnects every client, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[uuid.UUID]map[*client]bool)
	h.mu.Unlock()

	for _, clients := range all {
		for c := range clients {
			metrics.WebsocketConnections.Dec()
			c.conn.Close()
		}
	}
}

// Serve owns conn until it closes: it greets the client, keeps it alive with
// pings and discards anything the client sends.
func (h *Hub) Serve(workspaceID uuid.UUID, conn *websocket.Conn) {
	c := &client{conn: conn}
	log := zap.L().With(zap.String("workspace_id", workspaceID.String()))

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn("failed to set initial read deadline", zap.Error(err))
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.register(workspaceID, c)
	defer h.unregister(workspaceID, c)

	if err := c.write(Event{Type: "connected", WorkspaceID: workspaceID}); err != nil {
		log.Warn("failed to send welcome message", zap.Error(err))
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					log.Debug("ping failed", zap.Error(err))
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
