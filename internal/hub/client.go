package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute a
// fake; production always passes the real thing.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one websocket connection. A connection can be a member of any
// number of trip rooms at once; membership dies with the connection.
type Client struct {
	hub  *Hub
	conn Conn
	send chan []byte

	mu    sync.Mutex
	rooms map[string]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps a connection. The caller runs WritePump in its own
// goroutine and ReadPump on the request goroutine.
func (h *Hub) NewClient(conn Conn) *Client {
	return &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.sendBuffer),
		rooms: make(map[string]struct{}),
		done:  make(chan struct{}),
	}
}

func (c *Client) addRoom(shareCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[shareCode] = struct{}{}
}

func (c *Client) removeRoom(shareCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, shareCode)
}

func (c *Client) roomList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	codes := make([]string, 0, len(c.rooms))
	for code := range c.rooms {
		codes = append(codes, code)
	}
	return codes
}

// enqueue queues a frame for delivery, dropping it if the client's buffer
// is full. A subscriber that cannot keep up loses events rather than
// stalling the publisher.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		log.Printf("hub: dropping frame for slow client")
	}
}

// WritePump drains the send queue onto the connection and keeps the
// connection alive with pings. Exits on the first write error or Close.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadPump reads client frames until the connection dies, passing each
// parsed message to handle. Malformed frames are ignored.
func (c *Client) ReadPump(handle func(Message)) {
	defer c.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		handle(msg)
	}
}

// Close tears the connection down and drops all room memberships. Safe to
// call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	})
}
