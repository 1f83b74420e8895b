package di

import (
	"fmt"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started; the server owns its lifecycle.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched

	cleanup := clientdata.NewCleanupJob(container.CacheRepo, container.CacheDB, log)
	if err := sched.AddJob(cfg.CacheCleanupSchedule, cleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", cleanup.Name(), err)
	}

	return &JobInstances{CacheCleanup: cleanup}, nil
}
