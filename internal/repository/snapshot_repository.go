package repository

import (
	"context"
	"fmt"

	"trailstatus/internal/database"
	"trailstatus/internal/domain"

	"github.com/google/uuid"
)

// SnapshotRepository appends and reads status snapshots. The store is
// append-only: there is no update or delete path, and "current status" is
// always the most recent snapshot by fetch timestamp.
type SnapshotRepository interface {
	Insert(ctx context.Context, snap domain.StatusSnapshot) error
	GetLatestBySource(ctx context.Context, sourceID uuid.UUID) (*domain.StatusSnapshot, error)
	GetLatestForPoint(ctx context.Context, pointID uuid.UUID) (map[uuid.UUID]domain.StatusSnapshot, error)
}

type PostgresSnapshotRepository struct {
	db database.DB
}

func NewPostgresSnapshotRepository(db database.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) Insert(ctx context.Context, snap domain.StatusSnapshot) error {
	if snap.Outcome == domain.OutcomeError {
		return fmt.Errorf("refusing to persist error outcome: source_id=%s", snap.SourceID)
	}
	raw := domain.ClampRaw(snap.Raw)
	_, err := r.db.Exec(ctx,
		`INSERT INTO status_snapshots (id, source_id, point_id, status, summary, raw, outcome, fetched_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		snap.ID, snap.SourceID, snap.PointID,
		string(snap.Status), snap.Summary, raw, string(snap.Outcome), snap.FetchedAt,
	)
	return err
}

func (r *PostgresSnapshotRepository) GetLatestBySource(ctx context.Context, sourceID uuid.UUID) (*domain.StatusSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, source_id, point_id, status, summary, raw, outcome, fetched_at
		 FROM status_snapshots
		 WHERE source_id = $1
		 ORDER BY fetched_at DESC
		 LIMIT 1`,
		sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	snap, err := scanSnapshot(rows)
	if err != nil {
		return nil, err
	}
	return &snap, rows.Err()
}

func (r *PostgresSnapshotRepository) GetLatestForPoint(ctx context.Context, pointID uuid.UUID) (map[uuid.UUID]domain.StatusSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ON (source_id)
			id, source_id, point_id, status, summary, raw, outcome, fetched_at
		 FROM status_snapshots
		 WHERE point_id = $1
		 ORDER BY source_id, fetched_at DESC`,
		pointID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID]domain.StatusSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out[snap.SourceID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSnapshot(rows database.Rows) (domain.StatusSnapshot, error) {
	var snap domain.StatusSnapshot
	var status, outcome string
	if err := rows.Scan(&snap.ID, &snap.SourceID, &snap.PointID, &status, &snap.Summary, &snap.Raw, &outcome, &snap.FetchedAt); err != nil {
		return domain.StatusSnapshot{}, err
	}
	snap.Status = domain.StatusCode(status)
	snap.Outcome = domain.Outcome(outcome)
	return snap, nil
}

var _ SnapshotRepository = (*PostgresSnapshotRepository)(nil)
