package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned by Send once the connection has been closed.
var ErrConnClosed = errors.New("ws: connection closed")

// ErrSendBufferFull is returned by Send when the client is not draining
// its outbound queue fast enough.
var ErrSendBufferFull = errors.New("ws: send buffer full")

// Conn wraps a websocket connection with a buffered outbound queue so a
// slow client never blocks the goroutine broadcasting to it. All writes
// to the underlying socket go through writePump; Send only enqueues.
// It implements conn.Sender.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration

	mu     sync.Mutex
	closed bool
}

// NewConn wraps an upgraded websocket connection.
//
// Precondition: ws must be a freshly upgraded connection; sendBuffer must be positive.
// Postcondition: Returns a Conn whose writePump must be started by the caller.
func NewConn(ws *websocket.Conn, writeTimeout, pongTimeout time.Duration, sendBuffer int) *Conn {
	return &Conn{
		ws:           ws,
		send:         make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		pingInterval: pongTimeout * 9 / 10,
	}
}

// Send enqueues a message for delivery to the client. It never blocks:
// a full queue means the client has stalled, and the error tells the
// caller to treat the connection as dead.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump and closes the underlying socket.
// Safe to call more than once and concurrently with Send.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with periodic pings. It exits when Close is called,
// after attempting a clean close handshake.
//
// Precondition: Must be the only goroutine writing to the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(messageType, data)
}
