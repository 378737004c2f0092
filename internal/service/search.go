package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	"github.com/renovatuludoteca/ludoteca-server/internal/search"
	"github.com/renovatuludoteca/ludoteca-server/internal/store"
)

const reindexBatchSize = 500

// SearchService serves typeahead suggestions from the catalog index and
// repopulates it from the store.
type SearchService struct {
	index  *search.SearchIndex
	store  store.CatalogStore
	logger *slog.Logger
}

// NewSearchService creates a new search service. index may be nil when
// search is disabled; Suggest then returns no results.
func NewSearchService(index *search.SearchIndex, store store.CatalogStore, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether an index is configured.
func (s *SearchService) Enabled() bool {
	return s.index != nil
}

// Suggest returns typeahead matches for a partial game name.
func (s *SearchService) Suggest(ctx context.Context, params search.SuggestParams) ([]search.Suggestion, error) {
	if s.index == nil {
		return []search.Suggestion{}, nil
	}
	return s.index.Suggest(ctx, params)
}

// DocumentCount returns the number of indexed entries.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, fmt.Errorf("search index is disabled")
	}
	return s.index.DocumentCount()
}

// Reindex drops the index and rebuilds it from every stored entry.
// It returns the number of entries indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("search index is disabled")
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	total := 0
	batch := make([]*search.CatalogDocument, 0, reindexBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.index.IndexDocuments(batch); err != nil {
			return fmt.Errorf("index documents: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.store.ForEach(ctx, func(e *domain.CatalogEntry) error {
		batch = append(batch, search.NewCatalogDocument(e))
		if len(batch) == reindexBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}

	s.logger.Info("search index rebuilt", "documents", total)
	return total, nil
}
