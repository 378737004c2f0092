package providers

import (
	"context"
	"errors"
	"os"

	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/config"
	"github.com/renovatuludoteca/ludoteca-server/internal/domain"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
	"github.com/renovatuludoteca/ludoteca-server/internal/search"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve typeahead index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("search index disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	if err := os.MkdirAll(cfg.Search.Path, 0o750); err != nil {
		return nil, err
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service and hooks the index into
// store writes.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.SearchIndex, storeHandle.Store, log.Component("search"))

	if indexHandle.SearchIndex != nil {
		storeHandle.SetSearchIndexer(indexHandle.SearchIndex)
	}

	return svc, nil
}

var errStopIteration = errors.New("stop")

// TriggerSearchReindexIfNeeded rebuilds an empty index in the background
// when the catalog already has entries, e.g. after a mapping change.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !searchService.Enabled() {
		return
	}
	if docCount, _ := searchService.DocumentCount(); docCount > 0 {
		return
	}

	ctx := context.Background()
	err := storeHandle.ForEach(ctx, func(*domain.CatalogEntry) error {
		return errStopIteration
	})
	if !errors.Is(err, errStopIteration) {
		// Empty catalog, or the store failed; nothing to index either way.
		return
	}

	log.Info("search index is empty but catalog has entries, triggering reindex")

	go func() {
		count, err := searchService.Reindex(context.Background())
		if err != nil {
			log.Error("initial search reindex failed", "error", err)
			return
		}
		log.Info("initial search reindex completed", "documents", count)
	}()
}
