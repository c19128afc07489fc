package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"courier/server/internal/event"
)

const (
	pongWait      = 60 * time.Second
	pingInterval  = 54 * time.Second
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// Client is one live websocket connection. It implements presence.Handle:
// the uuid connection id is what lets a stale disconnect lose the
// leave-if-match check against a newer connection for the same identity.
type Client struct {
	connID   string
	username string
	conn     *websocket.Conn
	hub      *Hub
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(username string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		connID:   uuid.NewString(),
		username: username,
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, sendQueueSize),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.connID }

// Username returns the verified identity bound to this connection.
func (c *Client) Username() string { return c.username }

// Send queues an event without blocking. A connection too slow to drain its
// queue drops events; the client reconciles through history on its next
// fetch.
func (c *Client) Send(ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.hub.log.Errorw("marshal event", "type", ev.Type, "err", err)
		return
	}

	// The queue may be closed by a superseding join racing with a push; the
	// lock keeps enqueue and close from interleaving.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.log.Warnw("send queue full, dropping event", "user", c.username, "type", ev.Type)
	}
}

// closeSend shuts the outbound queue exactly once, ending the write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump consumes inbound frames until the connection dies, dispatching
// each request to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnw("websocket read", "user", c.username, "err", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.Send(event.New(event.TypeError, event.ErrorPayload{
				Code: "bad_frame", Message: "could not parse message",
			}))
			continue
		}
		c.hub.dispatch(c, in)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
