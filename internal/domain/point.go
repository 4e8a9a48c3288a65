package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SourceKind string

const (
	KindWeather    SourceKind = "weather"
	KindLandStatus SourceKind = "land_status"
	KindRoadStatus SourceKind = "road_status"
)

func ParseSourceKind(s string) (SourceKind, bool) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindWeather:
		return KindWeather, true
	case KindLandStatus:
		return KindLandStatus, true
	case KindRoadStatus:
		return KindRoadStatus, true
	}
	return "", false
}

type FetchStrategy string

const (
	StrategyStructuredAPI FetchStrategy = "structured_api"
	StrategyContentFetch  FetchStrategy = "content_fetch"
)

type MonitoredPoint struct {
	ID        uuid.UUID
	Name      string
	Latitude  *float64
	Longitude *float64
	Sources   []SourceConfig
	CreatedAt time.Time
}

func (p MonitoredPoint) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type SourceConfig struct {
	ID       uuid.UUID
	PointID  uuid.UUID
	Kind     SourceKind
	Strategy FetchStrategy
	// Locator is a URL for content-fetch sources; structured sources resolve
	// their endpoint from the point's coordinates instead.
	Locator string
	Label   string
}
