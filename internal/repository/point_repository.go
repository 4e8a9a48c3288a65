package repository

import (
	"context"
	"errors"

	"trailstatus/internal/database"
	"trailstatus/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// PointRepository reads the monitored-point catalog. The catalog is owned by
// an external management layer; this core never writes it.
type PointRepository interface {
	GetPoint(ctx context.Context, id uuid.UUID) (domain.MonitoredPoint, error)
	ListPoints(ctx context.Context, limit int) ([]domain.MonitoredPoint, error)
}

type PostgresPointRepository struct {
	db database.DB
}

func NewPostgresPointRepository(db database.DB) *PostgresPointRepository {
	return &PostgresPointRepository{db: db}
}

func (r *PostgresPointRepository) GetPoint(ctx context.Context, id uuid.UUID) (domain.MonitoredPoint, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, latitude, longitude, created_at
		 FROM monitored_points
		 WHERE id = $1`,
		id,
	)

	var p domain.MonitoredPoint
	if err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
		return domain.MonitoredPoint{}, ErrNotFound
	}

	sources, err := r.listSources(ctx, p.ID)
	if err != nil {
		return domain.MonitoredPoint{}, err
	}
	p.Sources = sources
	return p, nil
}

func (r *PostgresPointRepository) ListPoints(ctx context.Context, limit int) ([]domain.MonitoredPoint, error) {
	if limit <= 0 {
		limit = 500
	}
	if limit > 1000 {
		limit = 1000
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, name, latitude, longitude, created_at
		 FROM monitored_points
		 ORDER BY name ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MonitoredPoint, 0)
	for rows.Next() {
		var p domain.MonitoredPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		sources, err := r.listSources(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sources = sources
	}
	return out, nil
}

func (r *PostgresPointRepository) listSources(ctx context.Context, pointID uuid.UUID) ([]domain.SourceConfig, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, point_id, kind, strategy, locator, label
		 FROM source_configs
		 WHERE point_id = $1
		 ORDER BY kind ASC, label ASC`,
		pointID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SourceConfig, 0)
	for rows.Next() {
		var s domain.SourceConfig
		var kind, strategy string
		if err := rows.Scan(&s.ID, &s.PointID, &kind, &strategy, &s.Locator, &s.Label); err != nil {
			return nil, err
		}
		s.Kind = domain.SourceKind(kind)
		s.Strategy = domain.FetchStrategy(strategy)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ PointRepository = (*PostgresPointRepository)(nil)
