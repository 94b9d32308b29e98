// Package settings loads the marketplace-specific configuration.
//
// The go-bricks runtime reads the same config.yaml for app, server and database
// settings; the keys under "marketplace:" are ours. Environment variables with the
// MARKET_ prefix override file values (MARKET_VIEWS_COOLDOWN=12h).
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultPath is the config file shared with go-bricks.
	DefaultPath = "config.yaml"

	rootKey   = "marketplace"
	envPrefix = "MARKET_"
)

type Settings struct {
	Views    ViewsSettings    `koanf:"views"`
	Store    StoreSettings    `koanf:"store"`
	Remote   RemoteSettings   `koanf:"remote"`
	Catalog  CatalogSettings  `koanf:"catalog"`
	Checkout CheckoutSettings `koanf:"checkout"`
	Admin    AdminSettings    `koanf:"admin"`
}

type ViewsSettings struct {
	Cooldown        time.Duration `koanf:"cooldown" validate:"gt=0"`
	HistoryMax      int           `koanf:"history.max" validate:"gt=0"`
	DailyDays       int           `koanf:"daily.days" validate:"gt=0"`
	BatchDelay      time.Duration `koanf:"batch.delay" validate:"gt=0"`
	ArchiveInterval time.Duration `koanf:"archive.interval" validate:"gt=0"`
}

type StoreSettings struct {
	Backend       string `koanf:"backend" validate:"oneof=memory redis"`
	RedisAddr     string `koanf:"redis.addr" validate:"required_if=Backend redis"`
	RedisPassword string `koanf:"redis.password"`
	RedisDB       int    `koanf:"redis.db"`
	RedisPrefix   string `koanf:"redis.prefix"`
}

type RemoteSettings struct {
	Enabled bool `koanf:"enabled"`
}

type CatalogSettings struct {
	SyncInterval time.Duration `koanf:"sync.interval" validate:"gt=0"`
	SeedPath     string        `koanf:"seed.path"`
}

type CheckoutSettings struct {
	WhatsAppBase string `koanf:"whatsapp.base" validate:"required,url"`
	Locale       string `koanf:"locale" validate:"oneof=ar en"`
}

type AdminSettings struct {
	Source      string        `koanf:"source" validate:"oneof=static aws"`
	Emails      []string      `koanf:"emails"`
	AWSPrefix   string        `koanf:"aws.prefix" validate:"required_if=Source aws"`
	AWSCacheTTL time.Duration `koanf:"aws.cache.ttl"`
	AWSEndpoint string        `koanf:"aws.endpoint"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() map[string]any {
	return map[string]any{
		"views.cooldown":         24 * time.Hour,
		"views.history.max":      1000,
		"views.daily.days":       365,
		"views.batch.delay":      500 * time.Millisecond,
		"views.archive.interval": 5 * time.Minute,
		"store.backend":          "memory",
		"store.redis.prefix":     "market:",
		"remote.enabled":         false,
		"catalog.sync.interval":  2 * time.Minute,
		"checkout.whatsapp.base": "https://wa.me/",
		"checkout.locale":        "ar",
		"admin.source":           "static",
		"admin.aws.cache.ttl":    5 * time.Minute,
	}
}

// Load reads defaults, then path (when it exists), then MARKET_ environment variables.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}

	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		} else if err := k.Load(confmap.Provider(fk.Cut(rootKey).All(), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment settings: %w", err)
	}

	var s Settings
	sections := map[string]any{
		"views":    &s.Views,
		"store":    &s.Store,
		"remote":   &s.Remote,
		"catalog":  &s.Catalog,
		"checkout": &s.Checkout,
		"admin":    &s.Admin,
	}
	for path, target := range sections {
		if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{FlatPaths: true}); err != nil {
			return nil, fmt.Errorf("failed to decode %s settings: %w", path, err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// transformEnv maps MARKET_VIEWS_HISTORY_MAX to views.history.max.
func transformEnv(k, v string) (string, any) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
	if key == "admin.emails" {
		return key, splitList(v)
	}
	return key, v
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded settings.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid marketplace settings: %w", err)
	}
	return nil
}
