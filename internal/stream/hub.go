// Package stream pushes service events to websocket clients.
package stream

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/observability"
	"crypto-recommendation/internal/recommendation"
)

// EventSeriesSaved is sent after a symbol's series has been stored.
const EventSeriesSaved = "series_saved"

// DefaultSendBuffer is the number of events queued per client before it is dropped.
const DefaultSendBuffer = 64

// Event is the message written to clients.
type Event struct {
	Type      string               `json:"type"`
	Symbol    string               `json:"symbol"`
	Stats     *domain.StatsSummary `json:"stats,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *log.Logger
	now        func() time.Time

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// HubOptions contains configuration for creating a Hub.
type HubOptions struct {
	SendBuffer int         // <= 0 uses DefaultSendBuffer
	Logger     *log.Logger // nil discards logs
}

// Compile-time interface check.
var _ recommendation.Notifier = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub(opts HubOptions) *Hub {
	sendBuffer := opts.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: sendBuffer,
		logger:     logger,
		now:        time.Now,
		clients:    make(map[string]*client),
	}
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// SeriesSaved broadcasts a series_saved event.
func (h *Hub) SeriesSaved(symbol string, summary domain.StatsSummary) {
	h.Broadcast(Event{
		Type:      EventSeriesSaved,
		Symbol:    symbol,
		Stats:     &summary,
		Timestamp: h.now().UTC(),
	})
}

// Broadcast queues e for every client. Clients whose queue is full are dropped.
func (h *Hub) Broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Printf("Marshal %s event: %v", e.Type, err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Printf("Dropping slow client %s", c.id)
		h.unregister(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	for _, c := range clients {
		close(c.send)
	}
	h.mu.Unlock()

	observability.UpdateStreamClients(0)
	h.logger.Printf("Hub closed, %d clients disconnected", len(clients))
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	observability.UpdateStreamClients(n)
	h.logger.Printf("Client %s connected (%d total)", c.id, n)
	return true
}

// unregister removes c and closes its send queue. It is safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	observability.UpdateStreamClients(n)
	h.logger.Printf("Client %s disconnected (%d total)", c.id, n)
}
