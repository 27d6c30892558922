package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// RefreshEvent tells listing pages to reload their data.
type RefreshEvent struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// RefreshHub fans refresh events out to every connected page.
type RefreshHub struct {
	register   chan *refreshClient
	unregister chan *refreshClient
	broadcast  chan []byte
	done       chan struct{}
	clients    map[*refreshClient]struct{}
	logger     *zap.Logger
	hello      []byte
}

func NewRefreshHub(logger *zap.Logger) *RefreshHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshHub{
		register:   make(chan *refreshClient),
		unregister: make(chan *refreshClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*refreshClient]struct{}),
		logger:     logger,
		hello:      []byte(`{"type":"connected"}`),
	}
}

// Run serves the hub until ctx is done.
func (h *RefreshHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			client.send <- h.hello
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *RefreshHub) drop(client *refreshClient) {
	delete(h.clients, client)
	close(client.send)
	client.conn.Close()
}

// join hands client to the hub; false once the hub has stopped.
func (h *RefreshHub) join(client *refreshClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Broadcast queues ev for every client. It never blocks the caller; when
// the queue is full the event is dropped since a newer one is pending.
func (h *RefreshHub) Broadcast(ev RefreshEvent) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal refresh event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("refresh queue full, event dropped")
	}
}

type refreshClient struct {
	hub  *RefreshHub
	conn *websocket.Conn
	send chan []byte
}

func newRefreshClient(hub *RefreshHub, conn *websocket.Conn) *refreshClient {
	return &refreshClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *refreshClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *refreshClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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
