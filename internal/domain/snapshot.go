package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type StatusCode string

const (
	StatusOpen           StatusCode = "open"
	StatusClosed         StatusCode = "closed"
	StatusRestricted     StatusCode = "restricted"
	StatusChainsRequired StatusCode = "chains_required"
	StatusUnknown        StatusCode = "unknown"
)

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	// OutcomeError exists for completeness but must never be persisted:
	// every failure path terminates in a degraded snapshot.
	OutcomeError Outcome = "error"
)

// MaxRawPayload bounds the raw text stored with a snapshot.
const MaxRawPayload = 10000

// ClampRaw bounds raw to MaxRawPayload bytes, backing up to a rune boundary
// so the stored payload stays valid UTF-8.
func ClampRaw(raw string) string {
	if len(raw) <= MaxRawPayload {
		return raw
	}
	cut := MaxRawPayload
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}

// StatusSnapshot is the immutable result of one fetch attempt for one
// (point, source) pair. Snapshots are append-only; the current status of a
// source is its most recent snapshot by FetchedAt.
type StatusSnapshot struct {
	ID        uuid.UUID
	SourceID  uuid.UUID
	PointID   uuid.UUID
	Status    StatusCode
	Summary   string
	Raw       string
	Outcome   Outcome
	FetchedAt time.Time
}

func NewSnapshot(src SourceConfig, status StatusCode, summary, raw string, outcome Outcome) StatusSnapshot {
	raw = ClampRaw(raw)
	return StatusSnapshot{
		ID:        uuid.New(),
		SourceID:  src.ID,
		PointID:   src.PointID,
		Status:    status,
		Summary:   summary,
		Raw:       raw,
		Outcome:   outcome,
		FetchedAt: Now().UTC(),
	}
}

func (s StatusSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
