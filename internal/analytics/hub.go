package analytics

import (
	"log"
	"net/http"
	"sync"
	"time"

	"aura/internal/models"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one live analytics connection.
type client struct {
	userID int
	conn   *websocket.Conn
	send   chan models.AnalyticsEvent
}

// Hub fans analytics events out to the connections of the owning user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*client]struct{}
	logger  *log.Logger
}

// NewHub returns an empty hub logging to logger.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients: make(map[int]map[*client]struct{}),
		logger:  logger,
	}
}

// Connections returns the number of live connections of userID.
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish queues event for every connection of userID. Connections whose
// buffer is full are dropped.
func (h *Hub) Publish(userID int, event models.AnalyticsEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Printf("WARNING: dropping slow analytics connection of user %d", c.userID)
		h.unregister(c)
	}
}

// ServeWS upgrades the request and streams events for userID until the peer disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan models.AnalyticsEvent, sendBuffer)}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// readPump discards inbound messages and notices when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Printf("WebSocket error for user %d: %v", c.userID, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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
