package app

import (
	"context"
	"log"
	"time"

	"trailstatus/internal/config"
	"trailstatus/internal/database"
	"trailstatus/internal/database/migration"
	dbpostgres "trailstatus/internal/database/postgres"
	"trailstatus/internal/database/seeder"
	"trailstatus/internal/fetch"
	"trailstatus/internal/infrastructure/cache"
	"trailstatus/internal/observability"
	"trailstatus/internal/repository"
	"trailstatus/internal/source"
	"trailstatus/internal/staleness"
	"trailstatus/internal/usecase"
	"trailstatus/internal/ws"
)

// Container wires the full dependency graph once at startup.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis

	Points    repository.PointRepository
	Snapshots repository.SnapshotRepository

	Metrics      *observability.Metrics
	Orchestrator *fetch.Orchestrator
	Conditions   *usecase.ConditionsUsecase
	Bulk         *usecase.BulkRefresher

	Hub *ws.Hub
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := (migration.Runner{Dir: cfg.App.MigrationsDir, Logger: logger}).Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.App.Environment == "development" {
		run := seeder.Runner{Seeders: []seeder.Seeder{seeder.PointsSeeder{}}}
		if err := run.Run(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	redisCache := cache.NewRedis(logger)

	points := repository.NewPostgresPointRepository(db)
	snapshots := repository.NewPostgresSnapshotRepository(db)

	metrics := observability.NewMetrics()

	weather := source.NewWeatherClient(cfg.Sources.WeatherAPIBase)
	pages := source.NewContentFetcher(cfg.Sources.DynamicHosts, cfg.Sources.HeadlessFetch, logger)

	// A typed-nil client must not reach the orchestrator as a non-nil
	// interface.
	var incidents fetch.IncidentAPI
	if c := source.NewIncidentClient(cfg.Sources.IncidentAPIBase); c != nil {
		incidents = c
	}

	orch := fetch.NewOrchestrator(weather, incidents, pages, snapshots, metrics, logger, fetch.Options{
		FetchTimeout:   cfg.Refresh.FetchTimeout,
		DynamicTimeout: cfg.Refresh.DynamicFetchTimeout,
		SearchRadiusKm: cfg.Refresh.SearchRadiusKm,
	})

	eval := staleness.NewEvaluator(staleness.Thresholds{
		Weather:    cfg.Refresh.WeatherThreshold,
		LandStatus: cfg.Refresh.LandThreshold,
		RoadStatus: cfg.Refresh.RoadThreshold,
	})

	hub := ws.NewHub(logger)

	conditions := usecase.NewConditionsUsecase(
		points,
		snapshots,
		orch,
		eval,
		ws.NewBroadcaster(hub),
		metrics,
		logger,
		usecase.ConditionsOptions{
			ForceRefresh:     cfg.Refresh.ForceRefresh,
			PerSourceTimeout: cfg.Refresh.PerSourceTimeout,
			BatchTimeout:     cfg.Refresh.BatchTimeout,
		},
	)

	bulk := usecase.NewBulkRefresher(points, snapshots, orch, eval, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Cache:        redisCache,
		Points:       points,
		Snapshots:    snapshots,
		Metrics:      metrics,
		Orchestrator: orch,
		Conditions:   conditions,
		Bulk:         bulk,
		Hub:          hub,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
