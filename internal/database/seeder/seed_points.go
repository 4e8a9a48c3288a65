package seeder

import (
	"context"
	"fmt"

	"trailstatus/internal/database"
)

// PointsSeeder loads a small development catalog of monitored points and
// their sources. Fixed UUIDs keep reruns idempotent.
type PointsSeeder struct{}

func (PointsSeeder) Name() string { return "monitored_points" }

type seedPoint struct {
	ID   string
	Name string
	Lat  *float64
	Lon  *float64
}

type seedSource struct {
	ID       string
	PointID  string
	Kind     string
	Strategy string
	Locator  string
	Label    string
}

func coord(v float64) *float64 { return &v }

var devPoints = []seedPoint{
	{ID: "4f9c1a22-93b1-4a57-8f2e-0d6caa01a001", Name: "Eagle Ridge Trailhead", Lat: coord(48.5126), Lon: coord(-121.0601)},
	{ID: "4f9c1a22-93b1-4a57-8f2e-0d6caa01a002", Name: "Silver Pass Summit", Lat: coord(37.4812), Lon: coord(-118.9873)},
	{ID: "4f9c1a22-93b1-4a57-8f2e-0d6caa01a003", Name: "Lost Creek Basin", Lat: nil, Lon: nil},
}

var devSources = []seedSource{
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b001", PointID: devPoints[0].ID, Kind: "weather", Strategy: "structured_api", Locator: "", Label: "Point Forecast"},
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b002", PointID: devPoints[0].ID, Kind: "land_status", Strategy: "content_fetch", Locator: "https://www.fs.usda.gov/alerts/okawen/alerts-notices", Label: "Ranger District Alerts"},
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b003", PointID: devPoints[0].ID, Kind: "road_status", Strategy: "structured_api", Locator: "https://wsdot.com/travel/real-time/mountainpasses/north-cascades", Label: "Highway 20 Conditions"},
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b004", PointID: devPoints[1].ID, Kind: "weather", Strategy: "structured_api", Locator: "", Label: "Point Forecast"},
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b005", PointID: devPoints[1].ID, Kind: "road_status", Strategy: "content_fetch", Locator: "https://roads.dot.ca.gov/roadinfo/sr168", Label: "Pass Road Status"},
	{ID: "7b2d0e11-41aa-4c18-9df3-5a01bb02b006", PointID: devPoints[2].ID, Kind: "land_status", Strategy: "content_fetch", Locator: "https://www.fs.usda.gov/alerts/sawtooth/alerts-notices", Label: "Forest Closure Orders"},
}

func (PointsSeeder) Run(ctx context.Context, db database.DB) error {
	for _, p := range devPoints {
		_, err := db.Exec(
			ctx,
			`INSERT INTO monitored_points (id, name, latitude, longitude)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Lat, p.Lon,
		)
		if err != nil {
			return fmt.Errorf("insert point %s: %w", p.Name, err)
		}
	}

	for _, s := range devSources {
		_, err := db.Exec(
			ctx,
			`INSERT INTO source_configs (id, point_id, kind, strategy, locator, label)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			s.ID, s.PointID, s.Kind, s.Strategy, s.Locator, s.Label,
		)
		if err != nil {
			return fmt.Errorf("insert source %s: %w", s.Label, err)
		}
	}

	return nil
}
