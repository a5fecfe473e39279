package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"handyconnect-server/logger"
	"handyconnect-server/types"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBuffer = 64
)

// Client is one websocket connection of a principal. Workers carry their
// trade and city so new bookings can be routed to them.
type Client struct {
	Principal   types.Principal
	ServiceType string
	City        string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a client not yet bound to a connection.
func NewClient(hub *Hub, p types.Principal, serviceType, city string) *Client {
	return &Client{
		Principal:   p,
		ServiceType: serviceType,
		City:        city,
		hub:         hub,
		send:        make(chan []byte, sendBuffer),
	}
}

// Upgrader builds the upgrader for the allowed origins. "*" accepts any origin.
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// Serve upgrades the request and pumps events to the client until either
// side closes.
func Serve(hub *Hub, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, client *Client) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("❌ WebSocket upgrade failed", zap.Error(err))
		return
	}
	client.conn = conn

	hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump handles pings from the client and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("❌ WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debug("Ignoring malformed client message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "ping":
			c.enqueue(Message{Type: "pong", Timestamp: time.Now()})
		default:
			logger.Debug("⚠️ Unknown message type", zap.String("type", msg.Type))
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// enqueue sends a direct reply. Replies race with the hub closing the send
// channel, so delivery goes through the hub lock.
func (c *Client) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if set, ok := c.hub.clients[c.Principal]; ok {
		if _, live := set[c]; live {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}
