// Package hub provides a thread-safe websocket broadcast hub
// using the channel-based fan-out pattern.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	// Registered clients, owned by Run
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Client count for read-only access from outside
	mu    sync.RWMutex
	count int

	running atomic.Bool

	sent    atomic.Uint64
	dropped atomic.Uint64
	evicted atomic.Uint64
}

// Stats holds hub counters.
type Stats struct {
	Running bool   `json:"running"`
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"` // Broadcasts dropped because the hub was saturated
	Evicted uint64 `json:"evicted"` // Slow clients disconnected
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until ctx is cancelled.
// This should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Info("client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount(len(h.clients))
			h.logger.Info("client disconnected", "clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent.Add(1)
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					h.evicted.Add(1)
					h.logger.Warn("dropped slow client")
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Broadcast sends raw bytes to all connected clients
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
		h.logger.Debug("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Stats returns hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Running: h.running.Load(),
		Clients: h.ClientCount(),
		Sent:    h.sent.Load(),
		Dropped: h.dropped.Load(),
		Evicted: h.evicted.Load(),
	}
}
