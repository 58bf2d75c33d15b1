// Package ws streams orchestration events to connected dashboard clients.
// The stream is strictly one-way: decisions, task force changes and
// escalations flow out, and inbound frames are only drained to notice a
// client going away.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// writeTimeout bounds a single broadcast write so one stalled client
// cannot hold up delivery to the rest.
const writeTimeout = 5 * time.Second

// Message is the envelope for every event sent over the stream.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	ws *websocket.Conn
}

// Hub tracks connected event-stream clients and fans broadcasts out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// HandleWS upgrades the request to a WebSocket and registers the client
// for event delivery. The connection stays registered until it dies.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	wsc, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checks happen in the CORS middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	c := &client{ws: wsc}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("event stream client connected", "remote", r.RemoteAddr)

	// Clients never send. CloseRead rejects inbound data frames and ends
	// the returned context once the connection closes.
	ctx := wsc.CloseRead(r.Context())
	go func() {
		<-ctx.Done()
		h.drop(c)
	}()
}

// Broadcast sends a message to every connected client. Clients whose
// write fails are dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "error", err)
			h.drop(c)
		}
	}
}

// ConnectionCount returns the number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// drop unregisters a client and closes its connection. Dropping a client
// that was already removed is a no-op.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
		slog.Info("event stream client disconnected")
	}
}
