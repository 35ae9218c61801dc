// Package eventstream serves the operator-facing live event stream over
// WebSocket, fed by internal/natsbus. Uses the gorilla/websocket
// upgrade-and-pump pattern webitel-im-delivery-service uses.
package eventstream

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/natsbus"
)

// Hub fans natsbus.Event values out to every connected WebSocket client.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan natsbus.Event
}

// NewHub constructs a Hub. CheckOrigin always allows — the control plane is
// meant to be reached from an operator's own trusted network, matching the
// pack's WSHandler which notes origin checks are a deployment-time concern.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Subscribe wires the Hub to a natsbus.Bus so every published Event reaches
// every connected WebSocket client.
func (h *Hub) Subscribe(bus *natsbus.Bus) error {
	_, err := bus.Subscribe(h.Broadcast)
	return err
}

// Broadcast pushes ev to every connected client's send buffer, dropping the
// client (closing its connection) if its buffer is full rather than
// blocking the whole hub on one slow reader.
func (h *Hub) Broadcast(ev natsbus.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("eventstream: client buffer full, dropping connection")
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and pumps events to it
// until the connection or request context ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("eventstream: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan natsbus.Event, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	h.pump(r.Context(), c)
}

func (h *Hub) pump(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				h.logger.Warn("eventstream: write failed, closing", zap.Error(err))
				return
			}
		}
	}
}
