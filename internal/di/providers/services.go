package providers

import (
	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/bgg"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
)

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	client := do.MustInvoke[*bgg.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Resolve the index first so store writes reach it.
	_ = do.MustInvoke[*service.SearchService](i)

	return service.NewCatalogService(storeHandle.Store, client, log.Component("catalog")), nil
}
