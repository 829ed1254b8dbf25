package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Hub broadcasts gesture events and transcript updates to WebSocket clients.
// It is registered with the output dispatcher as a sink, so every write
// arrives on the dispatcher goroutine.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Name identifies the sink in logs.
func (h *Hub) Name() string { return "websocket" }

// PublishEvent broadcasts a recognized gesture to all connected clients.
func (h *Hub) PublishEvent(ev gesture.Event) error {
	msg, err := json.Marshal(map[string]any{
		"type":      "event",
		"event":     ev,
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

// PublishText broadcasts the current transcript to all connected clients.
func (h *Hub) PublishText(text string) error {
	msg, err := json.Marshal(map[string]any{
		"type":      "transcript",
		"text":      text,
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// ClientCount reports how many WebSocket clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
