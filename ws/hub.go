package ws

import (
	"sync"
	"sync/atomic"
)

var hub *Hub
var once sync.Once

type clients struct {
	sync.Mutex
	// guardian_id -> session id -> *Client
	c map[string]map[string]*Client
}

// Hub tracks the websocket clients subscribed to each guardian's change
// feed and fans change events out to them.
type Hub struct {
	clients    *clients
	register   chan *Client
	unregister chan *Client
	count      int64
	stop       bool
	OnComplete func()
}

// Register hands a freshly upgraded client to the run loop.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Run() {
	defer func() {
		if h.OnComplete != nil {
			go h.OnComplete()
		}
	}()
	for {
		select {
		case c := <-h.register:
			h.clients.Lock()
			if h.clients.c[c.guardianID] == nil {
				h.clients.c[c.guardianID] = make(map[string]*Client)
			}
			if cl := h.clients.c[c.guardianID][c.sessionID]; cl != nil {
				cl.Close()
				delete(h.clients.c[c.guardianID], c.sessionID)
				atomic.AddInt64(&h.count, -1)
			}
			h.clients.c[c.guardianID][c.sessionID] = c
			atomic.AddInt64(&h.count, 1)
			h.clients.Unlock()
		case c := <-h.unregister:
			if c == nil {
				continue
			}
			h.clients.Lock()
			if sessions := h.clients.c[c.guardianID]; sessions != nil {
				if cl := sessions[c.sessionID]; cl == c {
					delete(sessions, c.sessionID)
					close(c.send)
					atomic.AddInt64(&h.count, -1)
				}
			}
			h.clients.Unlock()
			if h.stop && atomic.LoadInt64(&h.count) == 0 {
				return
			}
		}
	}
}

// Broadcast delivers one serialized change event to every client of the
// guardian. Slow clients are skipped rather than blocking the feed.
func (h *Hub) Broadcast(guardianID string, msg []byte) {
	h.clients.Lock()
	defer h.clients.Unlock()
	for _, c := range h.clients.c[guardianID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) Close() {
	h.stop = true
	if atomic.LoadInt64(&h.count) == 0 && h.OnComplete != nil {
		go h.OnComplete()
	}
	h.clients.Lock()
	defer h.clients.Unlock()
	for _, sessions := range h.clients.c {
		for _, c := range sessions {
			c.Close()
		}
	}
}

func GetHub() *Hub {
	once.Do(func() {
		clients := &clients{
			c: make(map[string]map[string]*Client),
		}
		hub = &Hub{
			clients:    clients,
			register:   make(chan *Client),
			unregister: make(chan *Client),
		}
	})
	return hub
}
