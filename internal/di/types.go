// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/AlgoGators/algosystem/internal/database"
	analyticshandlers "github.com/AlgoGators/algosystem/internal/modules/analytics/handlers"
	"github.com/AlgoGators/algosystem/internal/modules/runs"
	"github.com/AlgoGators/algosystem/internal/scheduler"
)

// Container holds every long-lived dependency of the service
type Container struct {
	// Databases
	RunsDB *database.DB // runs.db - stored analysis runs

	// Repositories
	RunRepo *runs.Repository

	// Services
	AnalyticsHandler *analyticshandlers.Handler
	Scheduler        *scheduler.Scheduler
}

// Close releases the container's resources. It is safe to call on a
// partially initialised container.
func (c *Container) Close() error {
	if c.RunsDB != nil {
		return c.RunsDB.Close()
	}
	return nil
}
