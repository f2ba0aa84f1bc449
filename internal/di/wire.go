package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AlgoGators/algosystem/internal/config"
	"github.com/AlgoGators/algosystem/internal/database"
	analyticshandlers "github.com/AlgoGators/algosystem/internal/modules/analytics/handlers"
	"github.com/AlgoGators/algosystem/internal/modules/runs"
	"github.com/AlgoGators/algosystem/internal/scheduler"
)

// databaseCheckSchedule runs the integrity check weekly, Sunday 04:00.
const databaseCheckSchedule = "0 0 4 * * 0"

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Initialize services
// 4. Register jobs
// The scheduler is returned stopped; the caller starts it.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	container.RunRepo = runs.NewRepository(container.RunsDB, log)

	container.AnalyticsHandler = analyticshandlers.NewHandler(analyticshandlers.Config{
		Metrics:           cfg.MetricsOptions(),
		VaRConfidence:     cfg.Analytics.VaRConfidence,
		MonteCarloSamples: cfg.Analytics.MonteCarloSamples,
		MonteCarloSeed:    cfg.Analytics.MonteCarloSeed,
		SweepWorkers:      cfg.SweepWorkers,
	}, container.RunRepo, log)

	if err := RegisterJobs(container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, nil
}

// InitializeDatabases opens runs.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	runsDB, err := database.New(database.Config{
		Path:    cfg.RunsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runs database: %w", err)
	}
	container.RunsDB = runsDB

	if err := runsDB.Migrate(context.Background()); err != nil {
		_ = runsDB.Close()
		return nil, fmt.Errorf("failed to migrate runs database: %w", err)
	}

	log.Info().Str("path", runsDB.Path()).Msg("Runs database initialized")
	return container, nil
}

// RegisterJobs creates the scheduler and registers the maintenance jobs
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)

	if cfg.Retention.Days > 0 {
		prune := scheduler.NewPruneRunsJob(container.RunRepo, cfg.Retention.Days)
		prune.SetLogger(log)
		if err := sched.AddJob(cfg.Retention.Cron, prune); err != nil {
			return err
		}
	}

	check := scheduler.NewCheckDatabaseJob(container.RunsDB)
	check.SetLogger(log)
	if err := sched.AddJob(databaseCheckSchedule, check); err != nil {
		return err
	}

	container.Scheduler = sched
	return nil
}
