package ws

import (
	"time"

	"trailstatus/internal/domain"
)

// StatusUpdatedEvent is pushed to connected clients whenever a background
// refresh lands a fresh snapshot.
type StatusUpdatedEvent struct {
	Type      string `json:"type"`
	PointID   string `json:"point_id"`
	PointName string `json:"point_name"`
	SourceID  string `json:"source_id"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
	FetchedAt string `json:"fetched_at"`
}

// Broadcaster adapts the hub to the conditions use case's notifier.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) StatusUpdated(point domain.MonitoredPoint, snap domain.StatusSnapshot) {
	if b == nil || b.hub == nil {
		return
	}

	evt := StatusUpdatedEvent{
		Type:      "status_updated",
		PointID:   point.ID.String(),
		PointName: point.Name,
		SourceID:  snap.SourceID.String(),
		Status:    string(snap.Status),
		Outcome:   string(snap.Outcome),
		FetchedAt: snap.FetchedAt.UTC().Format(time.RFC3339),
	}
	b.hub.Publish(point.ID, evt)
}
