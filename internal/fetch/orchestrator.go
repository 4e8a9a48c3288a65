package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"trailstatus/internal/classify"
	"trailstatus/internal/domain"
	"trailstatus/internal/observability"
	"trailstatus/internal/repository"
	"trailstatus/internal/source"
)

// NoActiveClosuresSummary is persisted when the incident API reports zero
// closures near a point: an empty result set is a valid "open" answer.
const NoActiveClosuresSummary = "No active closures reported in the area."

const weatherUnavailableSummary = "Weather data is currently unavailable. Check the forecast source directly."

type WeatherAPI interface {
	Fetch(ctx context.Context, pointName string, lat, lon float64) (source.WeatherReport, error)
}

type IncidentAPI interface {
	Fetch(ctx context.Context, box source.BoundingBox) ([]source.Incident, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)
	IsDynamic(url string) bool
}

// Orchestrator runs one fetch per (point, source) through the per-kind
// fallback chain and always terminates in exactly one appended snapshot.
// Failures never escape to the caller: every error becomes a degraded
// snapshot with a user-facing explanation.
type Orchestrator struct {
	weather   WeatherAPI
	incidents IncidentAPI
	pages     PageFetcher
	snapshots repository.SnapshotRepository
	metrics   *observability.Metrics
	logger    *log.Logger

	fetchTimeout   time.Duration
	dynamicTimeout time.Duration
	searchRadiusKm float64
}

type Options struct {
	FetchTimeout   time.Duration
	DynamicTimeout time.Duration
	SearchRadiusKm float64
}

func NewOrchestrator(
	weather WeatherAPI,
	incidents IncidentAPI,
	pages PageFetcher,
	snapshots repository.SnapshotRepository,
	metrics *observability.Metrics,
	logger *log.Logger,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if metrics == nil {
		metrics = observability.Nop()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	if opts.DynamicTimeout <= 0 {
		opts.DynamicTimeout = 15 * time.Second
	}
	if opts.SearchRadiusKm <= 0 {
		opts.SearchRadiusKm = source.DefaultSearchRadiusKm
	}
	return &Orchestrator{
		weather:        weather,
		incidents:      incidents,
		pages:          pages,
		snapshots:      snapshots,
		metrics:        metrics,
		logger:         logger,
		fetchTimeout:   opts.FetchTimeout,
		dynamicTimeout: opts.DynamicTimeout,
		searchRadiusKm: opts.SearchRadiusKm,
	}
}

// Refresh produces and persists exactly one new snapshot for the source.
func (o *Orchestrator) Refresh(ctx context.Context, point domain.MonitoredPoint, cfg domain.SourceConfig) domain.StatusSnapshot {
	start := time.Now()

	var snap domain.StatusSnapshot
	switch cfg.Kind {
	case domain.KindWeather:
		snap = o.refreshWeather(ctx, point, cfg)
	case domain.KindRoadStatus:
		snap = o.refreshRoad(ctx, point, cfg)
	default:
		snap = o.refreshContent(ctx, cfg)
	}

	o.persist(ctx, cfg, snap)

	o.metrics.FetchAttempts.WithLabelValues(string(cfg.Kind), string(snap.Outcome)).Inc()
	o.metrics.FetchDuration.WithLabelValues(string(cfg.Kind)).Observe(time.Since(start).Seconds())
	return snap
}

// refreshWeather calls the structured weather API directly. Weather has no
// content-fetch fallback: its upstream is a well-defined API, not scraped
// prose, so a failure converts straight to a degraded placeholder.
func (o *Orchestrator) refreshWeather(ctx context.Context, point domain.MonitoredPoint, cfg domain.SourceConfig) domain.StatusSnapshot {
	if o.weather == nil || !point.HasCoordinates() {
		return domain.NewSnapshot(cfg, domain.StatusUnknown, weatherUnavailableSummary, "", domain.OutcomeDegraded)
	}

	report, err := o.weather.Fetch(ctx, point.Name, *point.Latitude, *point.Longitude)
	if err != nil {
		o.logger.Printf("[Fetch] weather fetch failed point=%s err=%v", point.Name, err)
		return domain.NewSnapshot(cfg, domain.StatusUnknown, weatherUnavailableSummary, "", domain.OutcomeDegraded)
	}

	summary := classify.TruncateAtBoundary(report.Summary, classify.MaxSummaryLen)
	raw := rawForecast(report)
	return domain.NewSnapshot(cfg, domain.StatusUnknown, summary, raw, domain.OutcomeSuccess)
}

// refreshRoad tries the structured incident API first when coordinates are
// available, then falls through to a generic content fetch of the locator.
func (o *Orchestrator) refreshRoad(ctx context.Context, point domain.MonitoredPoint, cfg domain.SourceConfig) domain.StatusSnapshot {
	if o.incidents != nil && cfg.Strategy == domain.StrategyStructuredAPI && point.HasCoordinates() {
		box := source.BoxAround(*point.Latitude, *point.Longitude, o.searchRadiusKm)
		incidents, err := o.incidents.Fetch(ctx, box)
		if err == nil {
			return incidentSnapshot(cfg, incidents)
		}
		o.logger.Printf("[Fetch] incident api failed point=%s err=%v, falling back to content fetch", point.Name, err)
	}

	if strings.TrimSpace(cfg.Locator) == "" {
		fe := domain.NewFetchError(domain.FailureUnavailable, "", errors.New("no road-status locator configured"))
		return domain.NewSnapshot(cfg, domain.StatusUnknown, fe.UserFacingSummary(), "", domain.OutcomeDegraded)
	}
	return o.refreshContent(ctx, cfg)
}

// refreshContent performs the generic content fetch used for land status and
// as the road-status fallback. Retrieved-but-uninformative content is still
// a success: "we tried and found nothing" is distinct from "we failed to try".
func (o *Orchestrator) refreshContent(ctx context.Context, cfg domain.SourceConfig) domain.StatusSnapshot {
	if o.pages == nil {
		fe := domain.NewFetchError(domain.FailureUnavailable, cfg.Locator, errors.New("no content fetcher configured"))
		return domain.NewSnapshot(cfg, domain.StatusUnknown, fe.UserFacingSummary(), "", domain.OutcomeDegraded)
	}

	timeout := o.fetchTimeout
	dynamic := o.pages.IsDynamic(cfg.Locator)
	if dynamic {
		timeout = o.dynamicTimeout
	}

	text, err := o.pages.Fetch(ctx, cfg.Locator, timeout)
	if err != nil {
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			fe = domain.NewFetchError(domain.FailureUnavailable, cfg.Locator, err)
		}
		o.logger.Printf("[Fetch] content fetch failed url=%s category=%s err=%v", cfg.Locator, fe.Category, err)
		return domain.NewSnapshot(cfg, domain.StatusUnknown, fe.UserFacingSummary(), "", domain.OutcomeDegraded)
	}

	var code domain.StatusCode
	var summary string
	if dynamic {
		code, summary = classify.DynamicContent(text)
	} else {
		code, summary = classify.Content(text)
	}
	if summary == classify.AdvisorySummary {
		o.metrics.SummaryFallbacks.Inc()
	}
	return domain.NewSnapshot(cfg, code, summary, text, domain.OutcomeSuccess)
}

func (o *Orchestrator) persist(ctx context.Context, cfg domain.SourceConfig, snap domain.StatusSnapshot) {
	if o.snapshots == nil {
		return
	}
	if err := o.snapshots.Insert(ctx, snap); err != nil {
		o.logger.Printf("[Fetch] snapshot insert failed source_id=%s err=%v", cfg.ID, err)
		return
	}
	o.metrics.SnapshotsPersisted.Inc()
}

func incidentSnapshot(cfg domain.SourceConfig, incidents []source.Incident) domain.StatusSnapshot {
	if len(incidents) == 0 {
		return domain.NewSnapshot(cfg, domain.StatusOpen, NoActiveClosuresSummary, "", domain.OutcomeSuccess)
	}

	parts := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		desc := strings.TrimSpace(inc.Description)
		route := strings.TrimSpace(inc.Route)
		switch {
		case route != "" && desc != "":
			parts = append(parts, fmt.Sprintf("%s: %s", route, desc))
		case desc != "":
			parts = append(parts, desc)
		case route != "":
			parts = append(parts, route)
		}
	}
	text := strings.Join(parts, "; ")

	code := classify.InferStatus(text)
	if code == domain.StatusUnknown || code == domain.StatusOpen {
		// The API returned active records; at minimum access is restricted.
		code = domain.StatusRestricted
	}
	summary := classify.TruncateAtBoundary(text, classify.MaxSummaryLen)
	return domain.NewSnapshot(cfg, code, summary, text, domain.OutcomeSuccess)
}

func rawForecast(r source.WeatherReport) string {
	var b strings.Builder
	for _, p := range r.Periods {
		b.WriteString(p.Name)
		b.WriteString(": ")
		if p.DetailedForecast != "" {
			b.WriteString(p.DetailedForecast)
		} else {
			b.WriteString(p.ShortForecast)
		}
		b.WriteString("\n")
	}
	return b.String()
}
