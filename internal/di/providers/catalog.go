package providers

import (
	"github.com/samber/do/v2"

	"github.com/scenescout/scenescout-server/internal/catalog"
	"github.com/scenescout/scenescout-server/internal/config"
	"github.com/scenescout/scenescout-server/internal/logger"
)

// CatalogClientHandle wraps the catalog client with shutdown capability.
type CatalogClientHandle struct {
	*catalog.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalogClient provides the rate-limited remote catalog client.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := catalog.New(catalog.Config{
		Endpoint:    cfg.Catalog.Endpoint,
		APIKey:      cfg.Catalog.APIKey,
		Timeout:     cfg.Catalog.Timeout,
		MaxAttempts: cfg.Catalog.MaxAttempts,
		BackoffBase: cfg.Catalog.BackoffBase,
		BackoffCap:  cfg.Catalog.BackoffCap,
		Cooldown:    cfg.Catalog.Cooldown,
		RPS:         cfg.Catalog.RPS,
		Burst:       cfg.Catalog.Burst,
	}, log.Logger)

	if cfg.Catalog.Endpoint == "" {
		log.Warn("No catalog endpoint configured, discovery will be unavailable until one is set")
	} else {
		log.Info("Catalog client ready", "endpoint", cfg.Catalog.Endpoint)
	}

	return &CatalogClientHandle{Client: client}, nil
}
