package usecase

import (
	"context"
	"log"
	"time"

	"trailstatus/internal/domain"
	"trailstatus/internal/observability"
	"trailstatus/internal/repository"
	"trailstatus/internal/staleness"

	"github.com/google/uuid"
)

// Refresher produces and persists one snapshot per invocation. Implemented
// by the fetch orchestrator.
type Refresher interface {
	Refresh(ctx context.Context, point domain.MonitoredPoint, cfg domain.SourceConfig) domain.StatusSnapshot
}

// Notifier receives fire-and-forget updates when a background refresh lands
// a new snapshot.
type Notifier interface {
	StatusUpdated(point domain.MonitoredPoint, snap domain.StatusSnapshot)
}

type SourceStatus struct {
	SourceID   uuid.UUID         `json:"source_id"`
	Kind       domain.SourceKind `json:"kind"`
	Label      string            `json:"label,omitempty"`
	StatusCode domain.StatusCode `json:"status_code"`
	Summary    string            `json:"summary"`
	Outcome    domain.Outcome    `json:"outcome,omitempty"`
	FetchedAt  *time.Time        `json:"fetched_at,omitempty"`
}

type PointConditions struct {
	PointID  uuid.UUID      `json:"point_id"`
	Name     string         `json:"name"`
	Statuses []SourceStatus `json:"statuses"`
}

type ConditionsUsecase struct {
	points    repository.PointRepository
	snapshots repository.SnapshotRepository
	refresher Refresher
	eval      staleness.Evaluator
	notifier  Notifier
	metrics   *observability.Metrics
	logger    *log.Logger

	forceRefresh     bool
	perSourceTimeout time.Duration
	batchTimeout     time.Duration
	backgroundBudget time.Duration
}

type ConditionsOptions struct {
	// ForceRefresh is the global flag that bypasses staleness thresholds.
	ForceRefresh     bool
	PerSourceTimeout time.Duration
	BatchTimeout     time.Duration
	// BackgroundBudget bounds a fire-and-forget refresh so a hung upstream
	// cannot pin a goroutine forever.
	BackgroundBudget time.Duration
}

func NewConditionsUsecase(
	points repository.PointRepository,
	snapshots repository.SnapshotRepository,
	refresher Refresher,
	eval staleness.Evaluator,
	notifier Notifier,
	metrics *observability.Metrics,
	logger *log.Logger,
	opts ConditionsOptions,
) *ConditionsUsecase {
	if logger == nil {
		logger = log.Default()
	}
	if metrics == nil {
		metrics = observability.Nop()
	}
	if opts.PerSourceTimeout <= 0 {
		opts.PerSourceTimeout = 6 * time.Second
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 10 * time.Second
	}
	if opts.BackgroundBudget <= 0 {
		opts.BackgroundBudget = 45 * time.Second
	}
	return &ConditionsUsecase{
		points:           points,
		snapshots:        snapshots,
		refresher:        refresher,
		eval:             eval,
		notifier:         notifier,
		metrics:          metrics,
		logger:           logger,
		forceRefresh:     opts.ForceRefresh,
		perSourceTimeout: opts.PerSourceTimeout,
		batchTimeout:     opts.BatchTimeout,
		backgroundBudget: opts.BackgroundBudget,
	}
}

// GetConditions returns the latest known status per source for a point.
// Sources with no snapshot at all are refreshed in the foreground under a
// bounded race; sources with a stale snapshot are refreshed in the
// background so the current read is never blocked by them.
func (u *ConditionsUsecase) GetConditions(ctx context.Context, pointID uuid.UUID) (PointConditions, error) {
	point, err := u.points.GetPoint(ctx, pointID)
	if err != nil {
		return PointConditions{}, err
	}

	latest, err := u.snapshots.GetLatestForPoint(ctx, pointID)
	if err != nil {
		return PointConditions{}, err
	}

	now := domain.Now()
	var firstTime []domain.SourceConfig
	var stale []domain.SourceConfig
	for _, cfg := range point.Sources {
		snap, ok := latest[cfg.ID]
		if !ok {
			firstTime = append(firstTime, cfg)
			continue
		}
		if u.eval.NeedsRefresh(cfg, &snap, u.forceRefresh, now) {
			stale = append(stale, cfg)
		}
	}

	if len(firstTime) > 0 {
		u.metrics.RefreshRuns.WithLabelValues("foreground").Inc()
		for id, snap := range u.foregroundRefresh(point, firstTime) {
			latest[id] = snap
		}
	}

	if len(stale) > 0 {
		u.metrics.RefreshRuns.WithLabelValues("background").Inc()
		u.backgroundRefresh(point, stale)
	}

	return buildConditions(point, latest), nil
}

// ForceRefresh refreshes every source of the point immediately, bypassing
// staleness thresholds, and returns the resulting conditions. Used by the
// admin endpoint and the CLI.
func (u *ConditionsUsecase) ForceRefresh(ctx context.Context, pointID uuid.UUID) (PointConditions, error) {
	point, err := u.points.GetPoint(ctx, pointID)
	if err != nil {
		return PointConditions{}, err
	}

	u.metrics.RefreshRuns.WithLabelValues("forced").Inc()
	latest := u.foregroundRefresh(point, point.Sources)

	// Sources that lost the race still have their previous snapshot.
	stored, err := u.snapshots.GetLatestForPoint(ctx, pointID)
	if err == nil {
		for id, snap := range stored {
			if _, ok := latest[id]; !ok {
				latest[id] = snap
			}
		}
	}
	return buildConditions(point, latest), nil
}

// foregroundRefresh races each source fetch against the per-source timeout
// and the whole batch against the batch timeout. Whichever fires first wins;
// fetches that lose the race are cancelled and their eventual results
// discarded in favor of rendering with whatever snapshots exist.
func (u *ConditionsUsecase) foregroundRefresh(point domain.MonitoredPoint, configs []domain.SourceConfig) map[uuid.UUID]domain.StatusSnapshot {
	// Detached from the request context: a client disconnect must not turn
	// an in-flight fetch into a lost snapshot.
	batchCtx, cancel := context.WithTimeout(context.Background(), u.batchTimeout)
	defer cancel()

	type result struct {
		sourceID uuid.UUID
		snap     domain.StatusSnapshot
	}
	results := make(chan result, len(configs))

	for _, cfg := range configs {
		cfg := cfg
		go func() {
			srcCtx, srcCancel := context.WithTimeout(batchCtx, u.perSourceTimeout)
			defer srcCancel()
			snap := u.refresher.Refresh(srcCtx, point, cfg)
			select {
			case results <- result{sourceID: cfg.ID, snap: snap}:
			case <-batchCtx.Done():
			}
		}()
	}

	out := map[uuid.UUID]domain.StatusSnapshot{}
	for remaining := len(configs); remaining > 0; remaining-- {
		select {
		case res := <-results:
			out[res.sourceID] = res.snap
		case <-batchCtx.Done():
			u.logger.Printf("[Conditions] foreground refresh timed out point=%s collected=%d/%d", point.Name, len(out), len(configs))
			return out
		}
	}
	return out
}

// backgroundRefresh starts fire-and-forget fetches. Errors are logged and
// swallowed; concurrent refreshes for the same source are allowed to race,
// since each attempt independently appends a snapshot.
func (u *ConditionsUsecase) backgroundRefresh(point domain.MonitoredPoint, configs []domain.SourceConfig) {
	for _, cfg := range configs {
		cfg := cfg
		go func() {
			defer func() {
				if r := recover(); r != nil {
					u.logger.Printf("[Conditions] background refresh panic source_id=%s: %v", cfg.ID, r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), u.backgroundBudget)
			defer cancel()

			snap := u.refresher.Refresh(ctx, point, cfg)
			if u.notifier != nil {
				u.notifier.StatusUpdated(point, snap)
			}
		}()
	}
}

func buildConditions(point domain.MonitoredPoint, latest map[uuid.UUID]domain.StatusSnapshot) PointConditions {
	out := PointConditions{
		PointID:  point.ID,
		Name:     point.Name,
		Statuses: make([]SourceStatus, 0, len(point.Sources)),
	}
	for _, cfg := range point.Sources {
		st := SourceStatus{
			SourceID:   cfg.ID,
			Kind:       cfg.Kind,
			Label:      cfg.Label,
			StatusCode: domain.StatusUnknown,
		}
		if snap, ok := latest[cfg.ID]; ok {
			fetchedAt := snap.FetchedAt
			st.StatusCode = snap.Status
			st.Summary = snap.Summary
			st.Outcome = snap.Outcome
			st.FetchedAt = &fetchedAt
		}
		out.Statuses = append(out.Statuses, st)
	}
	return out
}
