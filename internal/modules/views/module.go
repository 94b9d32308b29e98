// Package views counts product views per visitor. Visits are deduplicated with
// a cooldown window and kept in the key-value store; daily buckets are archived
// to the named "analytics" database, accessed via deps.DBByName.
package views

import (
	"context"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/handlers"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/job"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/ledger"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/service"
	"github.com/gaborage/go-bricks/app"
	"github.com/gaborage/go-bricks/database"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/messaging"
	"github.com/gaborage/go-bricks/server"
	"github.com/jonboulle/clockwork"
)

const (
	// analyticsDBName matches the key under "databases:" in config.yaml.
	analyticsDBName = "analytics"
)

// Module wires the view ledger to HTTP and the archive job.
type Module struct {
	settings settings.Settings
	store    kvstore.Store
	service  *service.ViewsService
	handler  *handlers.ViewsHandler
	repo     repository.Repository
	logger   logger.Logger

	getAnalyticsDB func(context.Context) (database.Interface, error)
}

// NewModule creates a new views module instance.
func NewModule(cfg settings.Settings, store kvstore.Store) *Module {
	return &Module{
		settings: cfg,
		store:    store,
	}
}

// Name returns the module name for registration.
func (m *Module) Name() string {
	return "views"
}

// Init initializes the module with application dependencies.
func (m *Module) Init(deps *app.ModuleDeps) error {
	m.logger = deps.Logger.WithFields(map[string]any{
		"module": "views",
	})

	m.logger.Info().Msg("Initializing views module")

	m.getAnalyticsDB = func(ctx context.Context) (database.Interface, error) {
		return deps.DBByName(ctx, analyticsDBName)
	}
	m.repo = repository.NewArchiveRepository(m.getAnalyticsDB)

	cfg := m.settings.Views
	clock := clockwork.NewRealClock()
	l := ledger.New(m.store, clock, ledger.Config{
		Cooldown:   cfg.Cooldown,
		HistoryMax: cfg.HistoryMax,
		DailyDays:  cfg.DailyDays,
	}, m.logger)
	b := ledger.NewBatcher(l, clock, cfg.BatchDelay, m.logger)

	m.service = service.NewService(l, b, m.repo, clock, m.logger)
	m.handler = handlers.NewViewsHandler(m.service, m.logger)

	m.logger.Info().
		Str("cooldown", cfg.Cooldown.String()).
		Int("historyMax", cfg.HistoryMax).
		Msg("Views module initialized successfully")

	return nil
}

// RegisterRoutes registers HTTP endpoints for view tracking.
func (m *Module) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	m.handler.RegisterRoutes(hr, r)
}

// DeclareMessaging declares messaging infrastructure for this module.
func (m *Module) DeclareMessaging(_ *messaging.Declarations) {
	// No messaging needed for views module.
}

// RegisterJobs schedules the archive of daily buckets into the analytics database.
func (m *Module) RegisterJobs(scheduler app.JobRegistrar) error {
	if !m.settings.Remote.Enabled {
		return nil
	}
	return scheduler.FixedRate("views-archive", job.NewArchiveJob(m.service), m.settings.Views.ArchiveInterval)
}

// Shutdown flushes queued views before the module stops.
func (m *Module) Shutdown() error {
	m.logger.Info().Msg("Shutting down views module")
	m.service.Close(context.Background())
	return nil
}
