package ws

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is one guardian websocket connection. The feed is one-way: the
// server pushes change events, the read pump only services control frames.
type Client struct {
	logger     *log.Logger
	hub        *Hub
	conn       *websocket.Conn
	guardianID string
	sessionID  string
	send       chan []byte
}

type ClientCfg struct {
	Logger     *log.Logger
	Hub        *Hub
	Conn       *websocket.Conn
	GuardianID string
	SessionID  string
}

func NewClient(cfg *ClientCfg) *Client {
	return &Client{
		logger:     cfg.Logger,
		hub:        cfg.Hub,
		conn:       cfg.Conn,
		guardianID: cfg.GuardianID,
		sessionID:  cfg.SessionID,
		send:       make(chan []byte, 256),
	}
}

func (c *Client) Send() chan<- []byte {
	return c.send
}

func (c *Client) Close() {
	c.conn.Close()
}

// ReadPump drains the connection until it drops, keeping the read deadline
// fresh through pongs, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Printf("error: %v\n", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
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
