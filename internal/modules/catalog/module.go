// Package catalog serves sellers, products and ratings from a local snapshot.
// The snapshot is loaded from a seed file at startup and, when a remote store
// is enabled, replaced periodically from the default database.
package catalog

import (
	"context"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/handlers"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/job"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
	"github.com/gaborage/go-bricks/app"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/messaging"
	"github.com/gaborage/go-bricks/server"
	"github.com/jonboulle/clockwork"
)

const initialSyncTimeout = 10 * time.Second

// Module owns the catalog snapshot and exposes the lookup service to the
// cart and verification modules.
type Module struct {
	settings settings.Settings
	snapshot *repository.Snapshot
	service  *service.CatalogService
	handler  *handlers.CatalogHandler
	logger   logger.Logger
}

// NewModule creates a new catalog module instance
func NewModule(cfg settings.Settings) *Module {
	return &Module{settings: cfg}
}

// Name returns the module name for registration
func (m *Module) Name() string {
	return "catalog"
}

// Init initializes the module with application dependencies
func (m *Module) Init(deps *app.ModuleDeps) error {
	m.logger = deps.Logger.WithFields(map[string]any{
		"module": "catalog",
	})

	m.logger.Info().Msg("Initializing catalog module")

	data := repository.Data{}
	if path := m.settings.Catalog.SeedPath; path != "" {
		seed, err := repository.LoadSeedFile(path)
		if err != nil {
			m.logger.Warn().Err(err).Str("path", path).Msg("Catalog seed not loaded, starting empty")
		} else {
			data = seed
		}
	}
	m.snapshot = repository.NewSnapshot(data)

	var remote repository.RemoteProvider
	if m.settings.Remote.Enabled {
		remote = repository.NewSQLRemoteProvider(deps.DB, m.logger)
	}

	m.service = service.NewService(m.snapshot, remote, m.logger, clockwork.NewRealClock())
	m.handler = handlers.NewCatalogHandler(m.service, m.logger)

	if m.service.RemoteEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), initialSyncTimeout)
		defer cancel()
		if err := m.service.Sync(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("Initial catalog sync failed, serving seed snapshot")
		}
	}

	m.logger.Info().
		Int("products", len(m.snapshot.Products())).
		Msg("Catalog module initialized successfully")

	return nil
}

// Service returns the catalog lookup service. It is nil before Init.
func (m *Module) Service() *service.CatalogService {
	return m.service
}

// RegisterRoutes registers HTTP endpoints for catalog reads and reviews
func (m *Module) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	m.handler.RegisterRoutes(hr, r)
}

// DeclareMessaging declares messaging infrastructure for this module
func (m *Module) DeclareMessaging(_ *messaging.Declarations) {
	// No messaging needed for catalog module.
}

// RegisterJobs schedules the remote sync when a remote store is enabled
func (m *Module) RegisterJobs(scheduler app.JobRegistrar) error {
	if !m.service.RemoteEnabled() {
		return nil
	}
	return scheduler.FixedRate("catalog-sync", job.NewSyncJob(m.service), m.settings.Catalog.SyncInterval)
}

// Shutdown performs cleanup when the module is stopped
func (m *Module) Shutdown() error {
	return nil
}
