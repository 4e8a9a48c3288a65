package usecase

import (
	"context"
	"testing"
	"time"

	"trailstatus/internal/domain"
	"trailstatus/internal/staleness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type degradedRefresher struct{}

func (degradedRefresher) Refresh(ctx context.Context, point domain.MonitoredPoint, cfg domain.SourceConfig) domain.StatusSnapshot {
	return domain.NewSnapshot(cfg, domain.StatusUnknown, "The status source is currently unavailable.", "", domain.OutcomeDegraded)
}

func TestBulkRefreshAllFirstTime(t *testing.T) {
	point := testPointWithSources(domain.KindWeather, domain.KindLandStatus)
	snaps := newFakeSnapshotRepo()
	ref := &fakeRefresher{store: snaps}

	b := NewBulkRefresher(fakePointRepo{point: point}, snaps, ref, staleness.NewEvaluator(staleness.Thresholds{}), nil)

	summary, err := b.RefreshAll(context.Background(), 2, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Points)
	assert.Equal(t, 2, summary.Refreshed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Degraded)
	assert.Equal(t, 2, ref.callCount())
}

func TestBulkRefreshSkipsFresh(t *testing.T) {
	point := testPointWithSources(domain.KindLandStatus)
	snaps := newFakeSnapshotRepo()
	_ = snaps.Insert(context.Background(), domain.NewSnapshot(point.Sources[0], domain.StatusOpen, "Fresh.", "", domain.OutcomeSuccess))

	ref := &fakeRefresher{store: snaps}
	b := NewBulkRefresher(fakePointRepo{point: point}, snaps, ref, staleness.NewEvaluator(staleness.Thresholds{}), nil)

	summary, err := b.RefreshAll(context.Background(), 2, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Refreshed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, ref.callCount())

	// Force bypasses the staleness gate.
	summary, err = b.RefreshAll(context.Background(), 2, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 1, ref.callCount())
}

func TestBulkRefreshLargeCatalogCompletes(t *testing.T) {
	// Far more sources than the pool's task and result buffers can hold
	// with a single worker: submission must overlap with result draining
	// or RefreshAll stalls partway through the catalog.
	kinds := make([]domain.SourceKind, 300)
	for i := range kinds {
		kinds[i] = domain.KindLandStatus
	}
	point := testPointWithSources(kinds...)
	snaps := newFakeSnapshotRepo()
	ref := &fakeRefresher{store: snaps}

	b := NewBulkRefresher(fakePointRepo{point: point}, snaps, ref, staleness.NewEvaluator(staleness.Thresholds{}), nil)
	b.rate = 0

	type outcome struct {
		summary BulkRefreshSummary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := b.RefreshAll(context.Background(), 1, false)
		done <- outcome{summary: s, err: err}
	}()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, 300, out.summary.Refreshed)
		assert.Equal(t, 300, ref.callCount())
	case <-time.After(30 * time.Second):
		t.Fatalf("RefreshAll did not finish; submission is blocked on full buffers")
	}
}

func TestBulkRefreshCountsDegraded(t *testing.T) {
	point := testPointWithSources(domain.KindRoadStatus)
	snaps := newFakeSnapshotRepo()

	b := NewBulkRefresher(fakePointRepo{point: point}, snaps, degradedRefresher{}, staleness.NewEvaluator(staleness.Thresholds{}), nil)

	summary, err := b.RefreshAll(context.Background(), 1, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Refreshed)
	assert.Equal(t, 1, summary.Degraded)
}
