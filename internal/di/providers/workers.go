package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/config"
	"github.com/renovatuludoteca/ludoteca-server/internal/jobs"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
)

// ProvideEnrichCatalogJob provides the batch enrichment job.
func ProvideEnrichCatalogJob(i do.Injector) (*jobs.EnrichCatalogJob, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return jobs.NewEnrichCatalogJob(catalog, log.Component("jobs")), nil
}

// SchedulerHandle wraps the cron scheduler with shutdown capability.
type SchedulerHandle struct {
	*jobs.Scheduler
}

// Shutdown implements do.Shutdownable. It waits for a running job to finish.
func (h *SchedulerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Stop(ctx)
}

// ProvideScheduler provides the periodic job scheduler. Jobs are only
// registered when enabled by configuration.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	scheduler := jobs.NewScheduler(log.Component("scheduler"))

	if cfg.Enrichment.Enabled {
		job := do.MustInvoke[*jobs.EnrichCatalogJob](i)
		if err := scheduler.Add(jobs.EnrichCatalogJobName, cfg.Enrichment.Schedule, job.Scheduled); err != nil {
			return nil, err
		}
		log.Info("catalog enrichment scheduled", "schedule", cfg.Enrichment.Schedule)
	} else {
		log.Info("catalog enrichment schedule disabled")
	}

	scheduler.Start()

	return &SchedulerHandle{Scheduler: scheduler}, nil
}
