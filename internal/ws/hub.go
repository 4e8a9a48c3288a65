package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// statusFrame is a marshaled status event tagged with its point so the hub
// can route it to matching subscribers.
type statusFrame struct {
	pointID uuid.UUID
	payload []byte
}

// Hub fans status-updated events out to subscribed clients. A client
// subscribed with a point filter receives only that point's events; a client
// with no filter receives the full stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Client]uuid.UUID

	events      chan statusFrame
	subscribe   chan *Client
	unsubscribe chan *Client

	logger *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*Client]uuid.UUID),
		events:      make(chan statusFrame, 1024),
		subscribe:   make(chan *Client, 128),
		unsubscribe: make(chan *Client, 128),
		logger:      logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.subscribe:
			if client == nil {
				continue
			}
			h.mu.Lock()
			h.subscribers[client] = client.pointID
			total := len(h.subscribers)
			h.mu.Unlock()
			h.logf("StatusStream subscribed | filter=%s total=%d", filterLabel(client.pointID), total)

		case client := <-h.unsubscribe:
			if client == nil {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subscribers[client]; ok {
				delete(h.subscribers, client)
				close(client.send)
			}
			total := len(h.subscribers)
			h.mu.Unlock()
			h.logf("StatusStream unsubscribed | total=%d", total)

		case frame := <-h.events:
			h.deliver(frame)
		}
	}
}

func (h *Hub) deliver(frame statusFrame) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.subscribers))
	for client, filter := range h.subscribers {
		if filter == uuid.Nil || filter == frame.pointID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.send <- frame.payload:
		default:
			// Slow consumer: drop it rather than stalling the stream.
			h.unsubscribe <- client
		}
	}
	h.logf("StatusStream delivered | point_id=%s clients=%d", frame.pointID, len(targets))
}

func (h *Hub) Subscribe(client *Client) {
	if h == nil {
		return
	}
	h.subscribe <- client
}

func (h *Hub) Unsubscribe(client *Client) {
	if h == nil {
		return
	}
	h.unsubscribe <- client
}

// Publish routes a status event to subscribers of its point. Non-blocking:
// when the event buffer is full the event is dropped, never the refresh that
// produced it.
func (h *Hub) Publish(pointID uuid.UUID, evt StatusUpdatedEvent) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case h.events <- statusFrame{pointID: pointID, payload: payload}:
	default:
		h.logf("StatusStream event dropped | point_id=%s reason=buffer_full", pointID)
	}
}

func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func filterLabel(pointID uuid.UUID) string {
	if pointID == uuid.Nil {
		return "all"
	}
	return pointID.String()
}
