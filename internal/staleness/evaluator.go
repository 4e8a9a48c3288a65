package staleness

import (
	"time"

	"trailstatus/internal/domain"
)

// Thresholds holds the maximum snapshot age per source kind before a refresh
// is warranted.
type Thresholds struct {
	Weather    time.Duration
	LandStatus time.Duration
	RoadStatus time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Weather:    3 * time.Hour,
		LandStatus: 6 * time.Hour,
		RoadStatus: 6 * time.Hour,
	}
}

type Evaluator struct {
	thresholds Thresholds
}

func NewEvaluator(t Thresholds) Evaluator {
	def := DefaultThresholds()
	if t.Weather <= 0 {
		t.Weather = def.Weather
	}
	if t.LandStatus <= 0 {
		t.LandStatus = def.LandStatus
	}
	if t.RoadStatus <= 0 {
		t.RoadStatus = def.RoadStatus
	}
	return Evaluator{thresholds: t}
}

func (e Evaluator) Threshold(kind domain.SourceKind) time.Duration {
	switch kind {
	case domain.KindWeather:
		return e.thresholds.Weather
	case domain.KindLandStatus:
		return e.thresholds.LandStatus
	default:
		return e.thresholds.RoadStatus
	}
}

// NeedsRefresh decides whether a (point, source) pair warrants a new fetch.
// Pure function of the latest snapshot's age and outcome; latest is nil when
// no snapshot has ever been taken.
func (e Evaluator) NeedsRefresh(cfg domain.SourceConfig, latest *domain.StatusSnapshot, force bool, now time.Time) bool {
	if latest == nil {
		return true
	}
	if force {
		return true
	}
	if latest.Age(now) > e.Threshold(cfg.Kind) {
		return true
	}
	// A degraded road-status placeholder carries no real data; retry it
	// opportunistically instead of caching it for the full threshold.
	if cfg.Kind == domain.KindRoadStatus && latest.Outcome == domain.OutcomeDegraded {
		return true
	}
	return false
}
