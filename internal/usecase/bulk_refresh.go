package usecase

import (
	"context"
	"fmt"
	"log"

	"trailstatus/internal/domain"
	"trailstatus/internal/fetch"
	"trailstatus/internal/repository"
	"trailstatus/internal/staleness"
)

// BulkRefreshSummary reports what a RefreshAll run did.
type BulkRefreshSummary struct {
	Points    int
	Refreshed int
	Skipped   int
	Degraded  int
}

// BulkRefresher walks the whole catalog and refreshes every source that
// needs it, bounded by a worker pool. Used by the refresh CLI.
type BulkRefresher struct {
	points    repository.PointRepository
	snapshots repository.SnapshotRepository
	refresher Refresher
	eval      staleness.Evaluator
	logger    *log.Logger
	rate      int
}

func NewBulkRefresher(
	points repository.PointRepository,
	snapshots repository.SnapshotRepository,
	refresher Refresher,
	eval staleness.Evaluator,
	logger *log.Logger,
) *BulkRefresher {
	if logger == nil {
		logger = log.Default()
	}
	return &BulkRefresher{
		points:    points,
		snapshots: snapshots,
		refresher: refresher,
		eval:      eval,
		logger:    logger,
		rate:      4,
	}
}

func (b *BulkRefresher) RefreshAll(ctx context.Context, workers int, force bool) (BulkRefreshSummary, error) {
	if workers <= 0 {
		workers = 4
	}

	points, err := b.points.ListPoints(ctx, 1000)
	if err != nil {
		return BulkRefreshSummary{}, err
	}

	pool := fetch.NewPool(workers, workers*2)
	pool.SetRateLimit(b.rate)
	results := pool.Run(ctx)

	// Drain results concurrently with submission: the catalog can hold far
	// more sources than the pool buffers, so waiting to drain until every
	// task is submitted would stall Submit once the buffers fill.
	degraded := make(chan int, 1)
	go func() {
		n := 0
		for res := range results {
			if res.Err != nil {
				n++
				b.logger.Printf("[BulkRefresh] %s: %v", res.Label, res.Err)
			}
		}
		degraded <- n
	}()

	summary := BulkRefreshSummary{Points: len(points)}
	now := domain.Now()

submit:
	for _, point := range points {
		point := point
		for _, cfg := range point.Sources {
			cfg := cfg
			latest, err := b.snapshots.GetLatestBySource(ctx, cfg.ID)
			if err != nil {
				b.logger.Printf("[BulkRefresh] latest lookup failed source_id=%s err=%v", cfg.ID, err)
				continue
			}
			if !b.eval.NeedsRefresh(cfg, latest, force, now) {
				summary.Skipped++
				continue
			}
			ok := pool.Submit(ctx, point.Name+"/"+string(cfg.Kind), func(ctx context.Context) error {
				snap := b.refresher.Refresh(ctx, point, cfg)
				if snap.Outcome == domain.OutcomeDegraded {
					return fmt.Errorf("degraded: %s", snap.Summary)
				}
				return nil
			})
			if !ok {
				break submit
			}
			summary.Refreshed++
		}
	}

	pool.Close()
	summary.Degraded = <-degraded
	return summary, ctx.Err()
}
