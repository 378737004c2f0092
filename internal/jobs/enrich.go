package jobs

import (
	"context"
	"log/slog"
	"time"
)

// EnrichCatalogJobName identifies the enrichment job in logs.
const EnrichCatalogJobName = "enrich-catalog"

// Enricher enriches one batch of catalog entries.
type Enricher interface {
	EnrichBatch(ctx context.Context) (int, error)
}

// EnrichResult is the outcome of one enrichment run.
type EnrichResult struct {
	Enriched int `json:"enriched"`
}

// EnrichCatalogJob fills in details for catalog entries that lack them.
type EnrichCatalogJob struct {
	enricher Enricher
	logger   *slog.Logger
}

// NewEnrichCatalogJob creates the enrichment job.
func NewEnrichCatalogJob(enricher Enricher, logger *slog.Logger) *EnrichCatalogJob {
	return &EnrichCatalogJob{enricher: enricher, logger: logger}
}

// Run enriches a single batch.
func (j *EnrichCatalogJob) Run(ctx context.Context) (EnrichResult, error) {
	n, err := j.enricher.EnrichBatch(ctx)
	return EnrichResult{Enriched: n}, err
}

// Scheduled is the cron entry point. Errors are returned to the scheduler
// for logging; the next tick retries.
func (j *EnrichCatalogJob) Scheduled(ctx context.Context) error {
	start := time.Now()
	res, err := j.Run(ctx)
	if err != nil {
		return err
	}
	if res.Enriched > 0 {
		j.logger.Info("catalog enrichment run",
			"enriched", res.Enriched,
			"duration", time.Since(start),
		)
	}
	return nil
}
