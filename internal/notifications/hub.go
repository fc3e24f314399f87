package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

// connection is one websocket client. Dashboards subscribe under their
// account ID and, for congregation admins, their congregation ID.
type connection struct {
	accountID      uuid.UUID
	congregationID *uuid.UUID
	conn           *websocket.Conn
	send           chan Message
}

// Hub fans committed decisions out to connected dashboards. Subscription
// keys are account and congregation IDs; a decision for a congregation
// reaches every admin of that congregation currently connected.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*connection]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a new push hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns: make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe upgrades the request and registers the session's connection.
// Blocks until the read pump exits.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, accountID uuid.UUID, congregationID *uuid.UUID) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		accountID:      accountID,
		congregationID: congregationID,
		conn:           ws,
		send:           make(chan Message, sendBuffer),
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// PushToCongregation delivers msg to every connection subscribed to the
// congregation. Slow clients are skipped, not waited on.
func (h *Hub) PushToCongregation(congregationID uuid.UUID, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns {
		if c.congregationID == nil || *c.congregationID != congregationID {
			continue
		}
		select {
		case c.send <- msg:
			delivered++
		default:
			h.logger.Warn("dropping push for slow client",
				zap.String("account_id", c.accountID.String()))
		}
	}
	return delivered
}

// PushToAccount delivers msg to every connection of one account
func (h *Hub) PushToAccount(accountID uuid.UUID, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns {
		if c.accountID != accountID {
			continue
		}
		select {
		case c.send <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) readPump(c *connection) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients never send meaningful frames; the read loop only
		// services control frames and detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
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
			if err := c.conn.WriteJSON(msg); err != nil {
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
