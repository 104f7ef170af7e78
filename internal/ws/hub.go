package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const broadcastBuffer = 64

// Event is the envelope pushed to dashboard clients.
type Event struct {
	Type    string `json:"type"` // stock_update, stock_alert
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	User    *Actor `json:"user,omitempty"`
}

// Actor identifies who caused an event.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Hub struct {
	clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Publish queues an event for all clients. It never blocks the caller;
// when the queue is full the event is dropped.
func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal ws event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, dropping event", zap.String("type", event.Type))
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug("ws client connected", zap.Int("clients", h.ClientCount()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Serve is the per-connection handler mounted on /ws.
func (h *Hub) Serve(c *websocket.Conn) {
	select {
	case h.Register <- c:
	case <-h.done:
		return
	}
	defer func() {
		select {
		case h.Unregister <- c:
		case <-h.done:
		}
	}()

	for {
		// clients only listen; reads detect disconnects
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
