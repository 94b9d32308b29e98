// Package verification lets sellers apply for a verified badge on their products
// and lets marketplace admins approve or reject the applications.
package verification

import (
	"context"

	catalogservice "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/secrets"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/handlers"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/service"
	"github.com/gaborage/go-bricks/app"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/messaging"
	"github.com/gaborage/go-bricks/server"
	"github.com/jonboulle/clockwork"
)

// CatalogSource hands out the catalog service once the catalog module is initialized.
type CatalogSource interface {
	Service() *catalogservice.CatalogService
}

type Module struct {
	settings settings.Settings
	store    kvstore.Store
	catalog  CatalogSource
	admins   secrets.AdminStore
	service  *service.VerificationService
	handler  *handlers.VerificationHandler
	logger   logger.Logger
}

// NewModule creates a new verification module. It must be registered after the catalog module.
func NewModule(cfg settings.Settings, store kvstore.Store, catalog CatalogSource, admins secrets.AdminStore) *Module {
	return &Module{
		settings: cfg,
		store:    store,
		catalog:  catalog,
		admins:   admins,
	}
}

// Name returns the module name for registration
func (m *Module) Name() string {
	return "verification"
}

// Init initializes the module with application dependencies
func (m *Module) Init(deps *app.ModuleDeps) error {
	m.logger = deps.Logger.WithFields(map[string]any{
		"module": "verification",
	})

	m.logger.Info().Msg("Initializing verification module")

	var remote repository.Remote
	if m.settings.Remote.Enabled {
		remote = repository.NewSQLRemote(deps.DB, m.logger)
	}

	m.service = service.NewService(
		repository.NewKVRepository(m.store),
		remote,
		m.catalog.Service(),
		clockwork.NewRealClock(),
		m.logger,
	)
	m.handler = handlers.NewVerificationHandler(m.service, m.admins, m.logger)

	// Without a remote store the catalog is rebuilt from the seed on start.
	if !m.settings.Remote.Enabled {
		if _, err := m.service.RestoreProjection(context.Background()); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to restore verification status from stored requests")
		}
	}

	m.logger.Info().Msg("Verification module initialized successfully")

	return nil
}

// RegisterRoutes registers HTTP endpoints for verification operations
func (m *Module) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	m.handler.RegisterRoutes(hr, r)
}

// DeclareMessaging declares messaging infrastructure for this module
func (m *Module) DeclareMessaging(_ *messaging.Declarations) {
}

// RegisterJobs registers scheduled jobs for this module
func (m *Module) RegisterJobs(_ app.JobRegistrar) error {
	return nil
}

// Shutdown releases the admin allow-list client
func (m *Module) Shutdown() error {
	if m.admins == nil {
		return nil
	}
	return m.admins.Close()
}
