package fetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"trailstatus/internal/domain"
	"trailstatus/internal/observability"
	"trailstatus/internal/source"

	"github.com/google/uuid"
)

type fakeSnapshotStore struct {
	mu       sync.Mutex
	inserted []domain.StatusSnapshot
	err      error
}

func (s *fakeSnapshotStore) Insert(ctx context.Context, snap domain.StatusSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, snap)
	return nil
}

func (s *fakeSnapshotStore) GetLatestBySource(ctx context.Context, sourceID uuid.UUID) (*domain.StatusSnapshot, error) {
	return nil, nil
}

func (s *fakeSnapshotStore) GetLatestForPoint(ctx context.Context, pointID uuid.UUID) (map[uuid.UUID]domain.StatusSnapshot, error) {
	return map[uuid.UUID]domain.StatusSnapshot{}, nil
}

func (s *fakeSnapshotStore) last(t *testing.T) domain.StatusSnapshot {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inserted) == 0 {
		t.Fatalf("no snapshot persisted")
	}
	return s.inserted[len(s.inserted)-1]
}

type fakeWeather struct {
	report source.WeatherReport
	err    error
}

func (w fakeWeather) Fetch(ctx context.Context, pointName string, lat, lon float64) (source.WeatherReport, error) {
	return w.report, w.err
}

type fakeIncidents struct {
	incidents []source.Incident
	err       error
}

func (f fakeIncidents) Fetch(ctx context.Context, box source.BoundingBox) ([]source.Incident, error) {
	return f.incidents, f.err
}

type fakePages struct {
	text    string
	err     error
	dynamic bool
}

func (p fakePages) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

func (p fakePages) IsDynamic(url string) bool { return p.dynamic }

func testPoint() domain.MonitoredPoint {
	lat, lon := 48.51, -121.06
	return domain.MonitoredPoint{
		ID:       uuid.New(),
		Name:     "Eagle Ridge Trailhead",
		Latitude: &lat, Longitude: &lon,
	}
}

func sourceOf(point domain.MonitoredPoint, kind domain.SourceKind, strategy domain.FetchStrategy, locator string) domain.SourceConfig {
	return domain.SourceConfig{
		ID:       uuid.New(),
		PointID:  point.ID,
		Kind:     kind,
		Strategy: strategy,
		Locator:  locator,
	}
}

func newTestOrchestrator(w WeatherAPI, i IncidentAPI, p PageFetcher, store *fakeSnapshotStore) *Orchestrator {
	return NewOrchestrator(w, i, p, store, observability.Nop(), nil, Options{})
}

func TestRefreshWeatherSuccess(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(fakeWeather{report: source.WeatherReport{
		Summary: "Tonight: Snow showers. 28F. Thursday: Partly sunny.",
		Periods: []source.ForecastPeriod{{Name: "Tonight", ShortForecast: "Snow showers"}},
	}}, nil, nil, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindWeather, domain.StrategyStructuredAPI, "")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success", snap.Outcome)
	}
	if snap.Status != domain.StatusUnknown {
		t.Errorf("weather snapshots carry no access status, got %s", snap.Status)
	}
	if !strings.Contains(snap.Summary, "Snow showers") {
		t.Errorf("summary = %q", snap.Summary)
	}
	if got := store.last(t); got.ID != snap.ID {
		t.Errorf("persisted snapshot mismatch")
	}
}

func TestRefreshWeatherFailureDegrades(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(fakeWeather{err: errors.New("boom")}, nil, nil, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindWeather, domain.StrategyStructuredAPI, "")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Outcome != domain.OutcomeDegraded {
		t.Errorf("outcome = %s, want degraded", snap.Outcome)
	}
	if snap.Status != domain.StatusUnknown {
		t.Errorf("status = %s, want unknown", snap.Status)
	}
	if snap.Summary == "" {
		t.Errorf("degraded snapshot must carry an explanation")
	}
	store.last(t)
}

func TestRefreshRoadZeroIncidentsMeansOpen(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(nil, fakeIncidents{incidents: nil}, nil, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindRoadStatus, domain.StrategyStructuredAPI, "")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Status != domain.StatusOpen {
		t.Errorf("status = %s, want open", snap.Status)
	}
	if snap.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success", snap.Outcome)
	}
	if snap.Summary != NoActiveClosuresSummary {
		t.Errorf("summary = %q", snap.Summary)
	}
}

func TestRefreshRoadIncidentsClassified(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(nil, fakeIncidents{incidents: []source.Incident{
		{Route: "SR 20", Description: "Road closed due to avalanche control"},
	}}, nil, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindRoadStatus, domain.StrategyStructuredAPI, "")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Status != domain.StatusClosed {
		t.Errorf("status = %s, want closed", snap.Status)
	}
	if !strings.Contains(snap.Summary, "SR 20") {
		t.Errorf("summary lost the route: %q", snap.Summary)
	}
}

func TestRefreshRoadUninformativeIncidentsRestricted(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(nil, fakeIncidents{incidents: []source.Incident{
		{Route: "SR 20", Description: "Maintenance activity near milepost 120"},
	}}, nil, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindRoadStatus, domain.StrategyStructuredAPI, "")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Status != domain.StatusRestricted {
		t.Errorf("active records must floor at restricted, got %s", snap.Status)
	}
}

func TestRefreshRoadFallsBackToContent(t *testing.T) {
	store := &fakeSnapshotStore{}
	pages := fakePages{text: "The pass road is closed until further notice past the sno-park."}
	o := newTestOrchestrator(nil, fakeIncidents{err: errors.New("api down")}, pages, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindRoadStatus, domain.StrategyStructuredAPI, "https://example.com/pass")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Status != domain.StatusClosed {
		t.Errorf("status = %s, want closed from content fallback", snap.Status)
	}
	if snap.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success", snap.Outcome)
	}
}

func TestRefreshContentNotFoundDegrades(t *testing.T) {
	store := &fakeSnapshotStore{}
	pages := fakePages{err: domain.NewFetchError(domain.FailureNotFound, "https://example.com/gone", errors.New("404"))}
	o := newTestOrchestrator(nil, nil, pages, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindLandStatus, domain.StrategyContentFetch, "https://example.com/gone")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Outcome != domain.OutcomeDegraded {
		t.Errorf("outcome = %s, want degraded", snap.Outcome)
	}
	if snap.Status != domain.StatusUnknown {
		t.Errorf("status = %s, want unknown", snap.Status)
	}
	if !strings.Contains(snap.Summary, "URL may have changed") {
		t.Errorf("summary = %q, want not-found explanation", snap.Summary)
	}
}

func TestRefreshContentUnknownButFetchedIsSuccess(t *testing.T) {
	store := &fakeSnapshotStore{}
	pages := fakePages{text: "Autumn colors are at their peak across the valley floor this week."}
	o := newTestOrchestrator(nil, nil, pages, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindLandStatus, domain.StrategyContentFetch, "https://example.com/alerts")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Outcome != domain.OutcomeSuccess {
		t.Errorf("retrieved-but-uninformative must be success, got %s", snap.Outcome)
	}
	if snap.Status != domain.StatusUnknown {
		t.Errorf("status = %s, want unknown", snap.Status)
	}
}

func TestRefreshNeverPersistsErrorOutcome(t *testing.T) {
	store := &fakeSnapshotStore{}
	o := newTestOrchestrator(
		fakeWeather{err: errors.New("boom")},
		fakeIncidents{err: errors.New("boom")},
		fakePages{err: errors.New("boom")},
		store,
	)

	point := testPoint()
	for _, kind := range []domain.SourceKind{domain.KindWeather, domain.KindLandStatus, domain.KindRoadStatus} {
		cfg := sourceOf(point, kind, domain.StrategyStructuredAPI, "https://example.com/x")
		o.Refresh(context.Background(), point, cfg)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.inserted) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(store.inserted))
	}
	for _, snap := range store.inserted {
		if snap.Outcome == domain.OutcomeError {
			t.Errorf("error outcome persisted for source %s", snap.SourceID)
		}
	}
}

func TestRefreshInsertFailureStillReturnsSnapshot(t *testing.T) {
	store := &fakeSnapshotStore{err: errors.New("db down")}
	pages := fakePages{text: "The trail is open and in good condition from end to end."}
	o := newTestOrchestrator(nil, nil, pages, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindLandStatus, domain.StrategyContentFetch, "https://example.com/alerts")

	snap := o.Refresh(context.Background(), point, cfg)
	if snap.Status != domain.StatusOpen {
		t.Errorf("status = %s, want open", snap.Status)
	}
}

func TestRefreshDynamicPageUsesMapLabels(t *testing.T) {
	store := &fakeSnapshotStore{}
	pages := fakePages{text: "Full Closure Chain Control Lane Closure", dynamic: true}
	o := newTestOrchestrator(nil, nil, pages, store)

	point := testPoint()
	cfg := sourceOf(point, domain.KindRoadStatus, domain.StrategyContentFetch, "https://maps.example.com/conditions")

	snap := o.Refresh(context.Background(), point, cfg)

	if snap.Status != domain.StatusClosed {
		t.Errorf("status = %s, want closed", snap.Status)
	}
	if !strings.HasPrefix(snap.Summary, "Road conditions map reports: ") {
		t.Errorf("summary = %q", snap.Summary)
	}
}
