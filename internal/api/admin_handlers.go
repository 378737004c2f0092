package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/renovatuludoteca/ludoteca-server/internal/errors"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "enrichCatalog",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/catalog/enrich",
		Summary:     "Run catalog enrichment",
		Description: "Runs one enrichment batch immediately (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEnrichCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Drops the typeahead index and rebuilds it from the catalog (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindexSearch)
}

// EnrichCatalogResponse reports one enrichment batch.
type EnrichCatalogResponse struct {
	Enriched int `json:"enriched" doc:"Entries that received details"`
}

// EnrichCatalogOutput wraps the enrichment response for Huma.
type EnrichCatalogOutput struct {
	Body EnrichCatalogResponse
}

// ReindexSearchResponse reports a rebuilt index.
type ReindexSearchResponse struct {
	Documents int `json:"documents" doc:"Entries indexed"`
}

// ReindexSearchOutput wraps the reindex response for Huma.
type ReindexSearchOutput struct {
	Body ReindexSearchResponse
}

func (s *Server) handleEnrichCatalog(ctx context.Context, _ *struct{}) (*EnrichCatalogOutput, error) {
	subject, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Enrich.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual catalog enrichment",
		"subject", subject,
		"enriched", res.Enriched,
	)

	return &EnrichCatalogOutput{Body: EnrichCatalogResponse{Enriched: res.Enriched}}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, _ *struct{}) (*ReindexSearchOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if !s.services.Search.Enabled() {
		return nil, domainerrors.Conflict("search index is disabled")
	}

	n, err := s.services.Search.Reindex(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("reindex failed", err)
	}

	return &ReindexSearchOutput{Body: ReindexSearchResponse{Documents: n}}, nil
}
