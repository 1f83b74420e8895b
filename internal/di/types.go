/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every service instance. It is created once by Wire()
 * and handed to the HTTP server and the CLI commands.
 */
package di

import (
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/evaluation/workers"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/prediction"
	"github.com/aristath/advisor/internal/modules/technical"
	"github.com/aristath/advisor/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Price-history cache (sqlite, cache profile)
	CacheDB *database.DB

	// Clients
	YahooClient *yahoo.Client

	// Time series access: Provider is the cached decorator around YahooClient
	CacheRepo *clientdata.Repository
	Provider  domain.TimeSeriesProvider

	// Services
	HistoryFetcher    *portfolio.HistoryFetcher
	MetricsCalculator *portfolio.MetricsCalculator
	PortfolioService  *portfolio.PortfolioService
	WorkerPool        *workers.WorkerPool
	FrontierGenerator *optimization.FrontierGenerator
	TechnicalEngine   *technical.Engine
	TechnicalService  *technical.Service
	Predictor         *prediction.Predictor

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to the registered jobs so they can be run on demand.
type JobInstances struct {
	CacheCleanup scheduler.Job
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.CacheDB == nil {
		return nil
	}
	return c.CacheDB.Close()
}
