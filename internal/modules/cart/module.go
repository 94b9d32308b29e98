// Package cart keeps per-visitor carts in the key-value store and hands
// checkout off to the sellers over WhatsApp, one conversation per seller.
package cart

import (
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/checkout"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/handlers"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/service"
	catalogservice "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
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
	service  *service.CartService
	handler  *handlers.CartHandler
	logger   logger.Logger
}

// NewModule creates a new cart module. It must be registered after the catalog module.
func NewModule(cfg settings.Settings, store kvstore.Store, catalog CatalogSource) *Module {
	return &Module{
		settings: cfg,
		store:    store,
		catalog:  catalog,
	}
}

// Name returns the module name for registration
func (m *Module) Name() string {
	return "cart"
}

// Init initializes the module with application dependencies
func (m *Module) Init(deps *app.ModuleDeps) error {
	m.logger = deps.Logger.WithFields(map[string]any{
		"module": "cart",
	})

	m.logger.Info().Msg("Initializing cart module")

	base := m.settings.Checkout.WhatsAppBase
	newChannel := func() checkout.Channel {
		return checkout.NewWhatsAppChannel(base)
	}

	m.service = service.NewService(
		repository.NewKVRepository(m.store),
		m.catalog.Service(),
		newChannel,
		clockwork.NewRealClock(),
		m.logger,
	)
	m.handler = handlers.NewCartHandler(m.service, m.settings.Checkout.Locale, m.logger)

	m.logger.Info().Msg("Cart module initialized successfully")

	return nil
}

// RegisterRoutes registers HTTP endpoints for cart operations
func (m *Module) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	m.handler.RegisterRoutes(hr, r)
}

// DeclareMessaging declares messaging infrastructure for this module
func (m *Module) DeclareMessaging(_ *messaging.Declarations) {
	// Checkout hands off to WhatsApp; no broker involved.
}

// RegisterJobs registers scheduled jobs for this module
func (m *Module) RegisterJobs(_ app.JobRegistrar) error {
	return nil
}

// Shutdown performs cleanup when the module is stopped
func (m *Module) Shutdown() error {
	return nil
}
