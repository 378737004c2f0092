package api

import (
	"github.com/renovatuludoteca/ludoteca-server/internal/jobs"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Catalog *service.CatalogService
	Search  *service.SearchService // Typeahead; may wrap a disabled index
	Enrich  *jobs.EnrichCatalogJob // Manual trigger of the scheduled batch
}
