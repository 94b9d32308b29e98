package kvstore

import (
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
)

// New builds the store selected by the settings backend.
func New(cfg settings.StoreSettings) Store {
	if cfg.Backend == "redis" {
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	}
	return NewMemoryStore()
}
