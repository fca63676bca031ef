package ws

import (
	"encoding/json"
	"time"

	"crewquest/internal/game"
	"crewquest/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64

	maxRoleLen    = 15
	maxRoomKeyLen = 64
)

// Client is one attached connection. ID is connection-scoped: the same
// person reconnecting is a new participant as far as rooms are
// concerned.
type Client struct {
	ID   string
	User string
	Role string

	conn *websocket.Conn
	Send chan []byte
	room *Room
}

func NewClient(user, role string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		User: user,
		Role: truncate(role, maxRoleLen),
		conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Run drives the connection: start the writer, join the room, then
// pump reads until the peer goes away. Join rejections are written
// back before the connection is closed.
func (c *Client) Run(hub *Hub, roomKey string, gameType game.Type) {
	go c.writePump()

	room, err := hub.JoinRoom(roomKey, gameType, c)
	if err != nil {
		c.enqueue(Message{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		close(c.Send)
		return
	}
	c.room = room

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		if c.room != nil {
			c.room.Remove(c)
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(msg)
	}
}

// handle forwards one inbound message, containing any panic so that an
// unexpected internal error costs only this connection.
func (c *Client) handle(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic handling message", "room", c.room.Key, "role", c.Role, "panic", r)
			_ = c.conn.Close()
		}
	}()
	c.room.HandleMessage(c, msg)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue marshals and queues one message without blocking. Delivery
// is best-effort: a full buffer drops the message rather than stalling
// the room that is broadcasting.
func (c *Client) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("marshal outbound message", "type", msg.Type, "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		messagesDropped.Inc()
		logger.Warn("send buffer full, dropping message", "role", c.Role, "type", msg.Type)
	}
}
