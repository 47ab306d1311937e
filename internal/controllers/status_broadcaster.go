package controllers

import (
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"net/http"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"sync"
	"time"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

func statusJSON(status models.SinkStatus) ([]byte, error) {
	return json.Marshal(status)
}

// wsClient owns one display connection. Only its writer goroutine writes to
// conn; send is closed once by the read loop.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// StatusBroadcaster streams the sink status to display clients over
// websocket. Every client receives the current status on connect and again
// after each change. A client that cannot keep up misses updates instead of
// stalling the sink.
type StatusBroadcaster struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	service  services.SinkServiceInterface
	logger   providers.Logger
}

func NewStatusBroadcaster(service services.SinkServiceInterface, logger providers.Logger) *StatusBroadcaster {
	b := &StatusBroadcaster{
		clients:  make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		service:  service,
		logger:   logger,
	}
	service.Subscribe(b.Broadcast)
	return b
}

// Broadcast queues the current status for every client without waiting on
// the network.
func (b *StatusBroadcaster) Broadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.clients) == 0 {
		return
	}
	msg, err := statusJSON(b.service.Status())
	if err != nil {
		b.logger.Errorf(providers.TypeApp, "Marshal status: %s", err)
		return
	}
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.logger.Debugf(providers.TypeGet, "Websocket client lagging, update dropped")
		}
	}
}

func (b *StatusBroadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *StatusBroadcaster) remove(c *wsClient) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
}

func (b *StatusBroadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warnf(providers.TypeGet, "Websocket upgrade: %s", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	msg, err := statusJSON(b.service.Status())
	if err != nil {
		conn.Close()
		return
	}
	// Registered before the initial status is queued so no change between
	// the two is lost.
	b.mu.Lock()
	b.clients[c] = struct{}{}
	c.send <- msg
	b.mu.Unlock()

	go b.writeLoop(c)
	go func() {
		defer func() {
			b.remove(c)
			c.close()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *StatusBroadcaster) writeLoop(c *wsClient) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Debugf(providers.TypeGet, "Websocket write: %s", err)
			b.remove(c)
			c.conn.Close()
			// drain until the read loop closes send
			for range c.send {
			}
			return
		}
	}
}
