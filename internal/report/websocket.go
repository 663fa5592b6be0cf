package report

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// WebSocketSink pushes every poll's snapshot to every connected client as
// a JSON array of the snapshot's StepStats (NodeStats.Err is not sent),
// and serves the upgrade endpoint itself via Handler.
type WebSocketSink struct {
	log engine.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    engine.NodeStats
}

type wsClient struct {
	conn *websocket.Conn
}

// NewWebSocketSink builds an empty hub.
func NewWebSocketSink(log engine.Logger) *WebSocketSink {
	return &WebSocketSink{log: log, clients: make(map[*wsClient]struct{})}
}

func (h *WebSocketSink) Run(ctx context.Context, source Source) {
	poll(ctx, source, func(snap engine.NodeStats) {
		h.mu.Lock()
		h.last = snap
		h.mu.Unlock()
		h.broadcast(snap)
	})
}

func (h *WebSocketSink) broadcast(snap engine.NodeStats) {
	data, err := json.Marshal(snap.Steps)
	if err != nil {
		h.log.Warn("marshal snapshot for ws", "error", err)
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.remove(c)
		}
	}
}

func (h *WebSocketSink) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("ws client connected", "clients", n)
}

func (h *WebSocketSink) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}
	h.mu.Unlock()
}

// Handler is the http.HandlerFunc that upgrades a connection and streams
// snapshots to it until the client disconnects.
func (h *WebSocketSink) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn("ws accept failed", "error", err)
		return
	}

	client := &wsClient{conn: conn}
	h.add(client)

	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if data, err := json.Marshal(last.Steps); err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		_ = conn.Write(ctx, websocket.MessageText, data)
		cancel()
	}

	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			h.remove(client)
			return
		}
	}
}

var _ Sink = (*WebSocketSink)(nil)
