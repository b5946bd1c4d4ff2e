package server

import (
	"sync"
	"time"

	"trend-pulse/src/helpers"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one WebSocket connection. It is the delivery handle registered
// with the broadcast hub for every subscription the connection creates.
type Client struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	send    chan models.MServerMessage
	limiter *rate.Limiter
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
}

// -----------------------------------------------------------------------------

func newClient(s *Server, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		server:  s,
		conn:    conn,
		send:    make(chan models.MServerMessage, s.Config.Broadcast.ClientBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.Config.Broadcast.MessageRate), s.Config.Broadcast.MessageBurst),
		log:     s.Logger.WithFields(logger.Fields{"connection_id": id}),
	}
}

// -----------------------------------------------------------------------------

func (c *Client) ID() string {
	return c.id
}

// -----------------------------------------------------------------------------

// Deliver queues msg without blocking. A full queue or a closed connection
// is a DeliveryError.
func (c *Client) Deliver(msg models.MServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return helpers.NewDeliveryError(c.id, helpers.ErrConnectionClosed)
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return helpers.NewDeliveryError(c.id, helpers.ErrQueueFull)
	}
}

// -----------------------------------------------------------------------------

// close ends the send queue; writePump then sends a close frame and exits.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// -----------------------------------------------------------------------------
// readPump - handles incoming protocol messages
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.server.disconnect(c)
		c.conn.Close()
		c.log.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Info("WebSocket error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.server.rejectMessage(c, helpers.NewMalformedMessageError("rate limit exceeded", nil))
			continue
		}
		c.server.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends queued messages to the client
// -----------------------------------------------------------------------------

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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Info("Write error: %v", err)
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
