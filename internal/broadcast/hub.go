package broadcast

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/schocken/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024

	sendBuffer = 32
)

// Hub tracks websocket watchers per room.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	hub       *Hub
	room      string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.WithPrefix("hub"),
		rooms:  make(map[string]map[*client]struct{}),
	}
}

// Publish sends the snapshot to every watcher of the room.
func (h *Hub) Publish(_ context.Context, key string, snap *game.Snapshot) error {
	data, err := marshalSnapshot(key, snap)
	if err != nil {
		return err
	}
	h.deliver(key, data)
	return nil
}

func (h *Hub) deliver(key string, data []byte) {
	h.mu.RLock()
	var slow []*client
	for c := range h.rooms[key] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Watcher send buffer full, closing connection", "room", key)
		c.close()
	}
}

// Watchers returns the number of connections watching a room.
func (h *Hub) Watchers(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

// ServeWS upgrades the request and registers the connection for key. The
// initial snapshot, if any, is queued before any later broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, key string, initial *game.Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "room", key, "error", err)
		return
	}

	c := &client{
		hub:  h,
		room: key,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	if initial != nil {
		if data, err := marshalSnapshot(key, initial); err == nil {
			c.send <- data
		}
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers, ok := h.rooms[c.room]
	if !ok {
		watchers = make(map[*client]struct{})
		h.rooms[c.room] = watchers
	}
	watchers[c] = struct{}{}
	h.logger.Debug("Watcher connected", "room", c.room, "total", len(watchers))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.rooms[c.room]
	delete(watchers, c)
	if len(watchers) == 0 {
		delete(h.rooms, c.room)
	}
	h.logger.Debug("Watcher disconnected", "room", c.room, "total", len(watchers))
}

// Close disconnects every watcher.
func (h *Hub) Close() error {
	h.mu.RLock()
	var all []*client
	for _, watchers := range h.rooms {
		for c := range watchers {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
	return nil
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump only serves control frames; watchers never send actions here.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket error", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.logger.Debug("Failed to write message", "room", c.room, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}
