package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/scene"
)

// DefaultLiveInterval is the /api/live update period, about 15 Hz.
const DefaultLiveInterval = 66 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// PosesHandler accepts detection snapshots from a browser-side detector and
// publishes them to the feed. Each text message is one snapshot in the
// detector wire format.
type PosesHandler struct {
	feed *detector.Feed
}

// NewPosesHandler creates a PosesHandler publishing to feed.
func NewPosesHandler(feed *detector.Feed) *PosesHandler {
	return &PosesHandler{feed: feed}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PosesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		poses, err := detector.DecodePoses(data)
		if err != nil {
			log.Printf("Dropping pose message: %v", err)
			continue
		}
		h.feed.Publish(poses)
	}
}

type liveMessage struct {
	State     scene.Status `json:"state"`
	Timestamp int64        `json:"timestamp"`
}

type liveClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveClient) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// LiveHandler broadcasts the game state to websocket clients.
type LiveHandler struct {
	state    StateSource
	interval time.Duration
	clients  map[string]*liveClient
	mu       sync.RWMutex
}

// NewLiveHandler creates a LiveHandler. A non-positive interval uses
// DefaultLiveInterval. Broadcasting starts with Run.
func NewLiveHandler(state StateSource, interval time.Duration) *LiveHandler {
	if interval <= 0 {
		interval = DefaultLiveInterval
	}
	return &LiveHandler{
		state:    state,
		interval: interval,
		clients:  make(map[string]*liveClient),
	}
}

// Clients returns the number of connected clients.
func (h *LiveHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests. A new client is sent the
// current state straight away.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	client := &liveClient{id: uuid.NewString(), conn: conn}
	if msg, err := h.message(); err == nil {
		if err := client.send(msg); err != nil {
			return
		}
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.id)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *LiveHandler) message() ([]byte, error) {
	return json.Marshal(liveMessage{
		State:     h.state.Status(),
		Timestamp: time.Now().UnixMilli(),
	})
}

// Run broadcasts until ctx is cancelled.
func (h *LiveHandler) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// Broadcast sends the current state to every client once.
func (h *LiveHandler) Broadcast() {
	h.mu.RLock()
	clients := make([]*liveClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg, err := h.message()
	if err != nil {
		log.Printf("Failed to encode live state: %v", err)
		return
	}

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			c.conn.Close()
		}
	}
}
