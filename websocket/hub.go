package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"handyconnect-server/logger"
	"handyconnect-server/models"
	"handyconnect-server/services"
	"handyconnect-server/types"
)

const eventBuffer = 256

// Message is the envelope written to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients and fans booking events out to them.
type Hub struct {
	clients    map[types.Principal]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan services.BookingEvent
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[types.Principal]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan services.BookingEvent, eventBuffer),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.Principal]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.Principal] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			logger.Info("🔌 Client registered", zap.String("principal", client.Principal.String()))

		case client := <-h.unregister:
			h.remove(client)
			logger.Info("🔌 Client unregistered", zap.String("principal", client.Principal.String()))

		case event := <-h.events:
			h.dispatch(event)

		case <-ctx.Done():
			h.mu.Lock()
			for p, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, p)
			}
			h.mu.Unlock()
			logger.Info("🛑 WebSocket hub stopped")
			return
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishBookingEvent queues an event without blocking the caller. Events are
// dropped when the queue is full.
func (h *Hub) PublishBookingEvent(event services.BookingEvent) {
	select {
	case h.events <- event:
	default:
		logger.Warn("⚠️ Event queue full, dropping booking event",
			zap.String("type", string(event.Type)),
			zap.Uint("booking_id", event.Booking.ID))
	}
}

// ConnectedClients reports the number of open connections.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.Principal]
	if !ok {
		return
	}
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.Principal)
	}
}

// BookingStatusChange is what workers who did not accept a booking learn
// about an update: enough to drop it from their feed.
type BookingStatusChange struct {
	ID     uint                 `json:"id"`
	Status models.BookingStatus `json:"status"`
}

type audience int

const (
	audienceNone audience = iota
	audienceStatus
	audienceFull
)

// dispatch delivers an event to every client entitled to it. New bookings go
// to matching workers. Updates go in full to the owner and the accepting
// worker, and as a bare status change to other matching workers.
func (h *Hub) dispatch(event services.BookingEvent) {
	b := event.Booking
	full, err := encode(event.Type, b)
	if err != nil {
		logger.Error("❌ Error marshaling message", zap.Error(err))
		return
	}
	status, err := encode(event.Type, BookingStatusChange{ID: b.ID, Status: b.Status})
	if err != nil {
		logger.Error("❌ Error marshaling message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var stale []*Client
	delivered := 0
	for p, set := range h.clients {
		for client := range set {
			var data []byte
			switch audienceFor(p, client, event.Type, &b.Booking) {
			case audienceFull:
				data = full
			case audienceStatus:
				data = status
			default:
				continue
			}
			select {
			case client.send <- data:
				delivered++
			default:
				stale = append(stale, client)
			}
		}
	}

	for _, client := range stale {
		logger.Warn("⚠️ Client send buffer full, disconnecting", zap.String("principal", client.Principal.String()))
		if set, ok := h.clients[client.Principal]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.clients, client.Principal)
			}
		}
		close(client.send)
	}

	logger.Debug("📢 Booking event dispatched",
		zap.String("type", string(event.Type)),
		zap.Uint("booking_id", b.ID),
		zap.Int("recipients", delivered))
}

func encode(eventType services.EventType, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      string(eventType),
		Timestamp: time.Now(),
		Data:      data,
	})
}

func audienceFor(p types.Principal, client *Client, eventType services.EventType, b *models.Booking) audience {
	switch {
	case p.IsCustomer():
		if eventType == services.EventBookingUpdated && b.IsOwnedBy(p.ID) {
			return audienceFull
		}
	case p.IsWorker():
		if eventType == services.EventBookingUpdated && b.IsAcceptedBy(p.ID) {
			return audienceFull
		}
		if client.matches(b.ServiceType, b.ServiceLocation.City) {
			if eventType == services.EventBookingCreated {
				return audienceFull
			}
			return audienceStatus
		}
	}
	return audienceNone
}

func (c *Client) matches(serviceType, city string) bool {
	return c.ServiceType != "" && c.City != "" &&
		strings.EqualFold(strings.TrimSpace(c.ServiceType), strings.TrimSpace(serviceType)) &&
		strings.EqualFold(strings.TrimSpace(c.City), strings.TrimSpace(city))
}
