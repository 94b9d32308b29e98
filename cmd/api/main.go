// Package main is the entry point for the marketplace API.
package main

import (
	"context"
	"io"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/secrets"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views"
	"github.com/gaborage/go-bricks/app"
	"github.com/gaborage/go-bricks/logger"
)

const adminStoreTimeout = 10 * time.Second

func main() {
	// Create application instance with environment-based configuration
	application, log, err := app.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	cfg, err := settings.Load(settings.DefaultPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load marketplace settings")
	}

	store := kvstore.New(cfg.Store)

	ctx, cancel := context.WithTimeout(context.Background(), adminStoreTimeout)
	admins, err := secrets.NewAdminStore(ctx, log, cfg.Admin)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize admin store")
	}

	modulesToLoad := getModulesToLoad(*cfg, store, admins)

	if err := registerModules(application, modulesToLoad, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register modules")
	}

	if err := application.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close key-value store")
		}
	}
}

type ModuleConfig struct {
	Name    string
	Enabled bool
	Module  app.Module
}

// getModulesToLoad lists modules in init order; cart and verification read the
// catalog service, so catalog comes first.
func getModulesToLoad(cfg settings.Settings, store kvstore.Store, admins secrets.AdminStore) []ModuleConfig {
	catalogModule := catalog.NewModule(cfg)

	return []ModuleConfig{
		{
			Name:    "catalog",
			Enabled: true,
			Module:  catalogModule,
		},
		{
			Name:    "views",
			Enabled: true,
			Module:  views.NewModule(cfg, store),
		},
		{
			Name:    "cart",
			Enabled: true,
			Module:  cart.NewModule(cfg, store, catalogModule),
		},
		{
			Name:    "verification",
			Enabled: true,
			Module:  verification.NewModule(cfg, store, catalogModule, admins),
		},
	}
}

func registerModules(appInstance *app.App, modules []ModuleConfig, log logger.Logger) error {
	for _, mod := range modules {
		if !mod.Enabled {
			log.Info().Str("module", mod.Name).Msg("Module is disabled, skipping registration")
			continue
		}

		log.Info().Str("module", mod.Name).Msg("Registering module")
		if err := appInstance.RegisterModule(mod.Module); err != nil {
			return err
		}
		log.Info().Str("module", mod.Name).Msg("Module registered successfully")
	}

	return nil
}
