package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSearchRadiusKm is the half-width of the bounding box used when
// querying the incident API around a point.
const DefaultSearchRadiusKm = 50.0

// IncidentClient queries a structured road-incident API by bounding box.
type IncidentClient struct {
	client  *http.Client
	apiBase string
}

func NewIncidentClient(apiBase string) *IncidentClient {
	apiBase = strings.TrimSpace(apiBase)
	if apiBase == "" {
		return nil
	}
	return &IncidentClient{
		client:  &http.Client{Timeout: 25 * time.Second},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

type Incident struct {
	Route       string     `json:"route"`
	Description string     `json:"description"`
	BeginsAt    *time.Time `json:"begins_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
}

type incidentListResponse struct {
	Incidents []Incident `json:"incidents"`
}

type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// BoxAround expands a coordinate pair into a square bounding box with the
// given half-width in kilometers.
func BoxAround(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm / 111.0
	dLon := radiusKm / (111.0 * math.Cos(lat*math.Pi/180))
	return BoundingBox{
		MinLat: lat - dLat,
		MinLon: lon - dLon,
		MaxLat: lat + dLat,
		MaxLon: lon + dLon,
	}
}

// Fetch lists active incidents inside the box. An empty result is a valid
// answer, not an error: it means no closures are active in the area.
func (c *IncidentClient) Fetch(ctx context.Context, box BoundingBox) ([]Incident, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil incident client")
	}

	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat))
	endpoint := c.apiBase + "/incidents?" + q.Encode()

	body, err := httpGetJSON(ctx, c.client, endpoint, 2)
	if err != nil {
		return nil, fmt.Errorf("incident fetch: %w", err)
	}

	var out incidentListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("incident decode: %w", err)
	}
	return out.Incidents, nil
}
