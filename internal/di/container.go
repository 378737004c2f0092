// Package di provides dependency injection configuration for the Ludoteca server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/auth"
	"github.com/renovatuludoteca/ludoteca-server/internal/bgg"
	"github.com/renovatuludoteca/ludoteca-server/internal/config"
	"github.com/renovatuludoteca/ludoteca-server/internal/di/providers"
	"github.com/renovatuludoteca/ludoteca-server/internal/jobs"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
	"github.com/renovatuludoteca/ludoteca-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line arguments passed to config.LoadConfig.
// Providers are lazy: nothing starts until it is invoked.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.Args(args))

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// BoardGameGeek: one queue for the whole process
	do.Provide(injector, providers.ProvideBGGQueue)
	do.Provide(injector, providers.ProvideBGGClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)

	// Workers
	do.Provide(injector, providers.ProvideEnrichCatalogJob)
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every server component and starts the HTTP
// server and scheduler.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*providers.BGGQueueHandle](injector)
	_ = do.MustInvoke[*bgg.Client](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*jobs.EnrichCatalogJob](injector)

	// Workers
	_ = do.MustInvoke[*providers.SchedulerHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
