package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is one dashboard notification: a scan committed or deleted, a
// pallet created, renamed, removed, locked or unlocked.
type Event struct {
	Type      string      `json:"type"`
	JobNumber string      `json:"jobNumber,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types pushed to dashboard subscribers.
const (
	EventScanCommitted  = "scan.committed"
	EventScanDeleted    = "scan.deleted"
	EventPalletCreated  = "pallet.created"
	EventPalletRenamed  = "pallet.renamed"
	EventPalletDeleted  = "pallet.deleted"
	EventPalletLocked   = "pallet.locked"
	EventPalletUnlocked = "pallet.unlocked"
)

// Hub maintains the set of subscribed dashboard clients and fans events
// out to them. Subscribers are read-only; nothing a client sends mutates
// server state.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			log.Printf("📡 Dashboard client connected: %s", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				log.Printf("📴 Dashboard client disconnected: %s", client.id)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected client. Slow clients are
// skipped rather than allowed to stall the scan path.
func (h *Hub) Broadcast(eventType, jobNumber string, data interface{}) {
	event := Event{
		Type:      eventType,
		JobNumber: jobNumber,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Buffer full or client dead
		}
	}
}
