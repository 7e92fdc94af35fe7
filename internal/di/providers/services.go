package providers

import (
	"github.com/samber/do/v2"

	"github.com/scenescout/scenescout-server/internal/config"
	"github.com/scenescout/scenescout-server/internal/discovery"
	"github.com/scenescout/scenescout-server/internal/logger"
	"github.com/scenescout/scenescout-server/internal/service"
)

// ProvideDiscoveryService provides the discovery engine service.
func ProvideDiscoveryService(i do.Injector) (*service.DiscoveryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogClientHandle](i)

	svc := service.NewDiscoveryService(storeHandle.Store, catalogHandle.Client, service.DiscoveryConfig{
		Endpoint:       cfg.Catalog.Endpoint,
		PerPage:        cfg.Discovery.PerPage,
		TargetCount:    cfg.Discovery.TargetCount,
		MaxPages:       cfg.Discovery.MaxPages,
		FavoriteLimit:  cfg.Discovery.FavoriteLimit,
		ExcludedTagIDs: cfg.Discovery.ExcludedTags,
		Weights:        discovery.DefaultScoreWeights(),
	}, log.Logger)

	return svc, nil
}

// ProvideLibraryService provides the local library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewLibraryService(storeHandle.Store, log.Logger), nil
}
