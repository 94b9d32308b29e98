// Package secrets resolves the marketplace administrator allow-list.
//
// The role model is a single boolean: an email is either on the allow-list and may
// review verification requests, or it is not. The list comes from static settings
// for local development or from AWS Secrets Manager in deployed environments.
package secrets

import (
	"context"
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/settings"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

// AdminStore answers whether an email belongs to a marketplace administrator.
type AdminStore interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	Close() error
}

// StaticAdminStore serves the allow-list from settings.
type StaticAdminStore struct {
	emails map[string]struct{}
}

// NewStaticAdminStore creates a store over a fixed list of emails
func NewStaticAdminStore(emails []string) *StaticAdminStore {
	s := &StaticAdminStore{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			s.emails[e] = struct{}{}
		}
	}
	return s
}

// IsAdmin implements AdminStore
func (s *StaticAdminStore) IsAdmin(_ context.Context, email string) (bool, error) {
	_, ok := s.emails[normalizeEmail(email)]
	return ok, nil
}

// Close implements AdminStore
func (s *StaticAdminStore) Close() error {
	return nil
}

// NewAdminStore builds the store selected by cfg.Source.
func NewAdminStore(ctx context.Context, log logger.Logger, cfg settings.AdminSettings) (AdminStore, error) {
	if cfg.Source != "aws" {
		log.Info().Int("admins", len(cfg.Emails)).Msg("Using static admin allow-list")
		return NewStaticAdminStore(cfg.Emails), nil
	}
	return NewAWSAdminStore(ctx, log, AWSAdminConfig{
		Prefix:      cfg.AWSPrefix,
		CacheTTL:    cfg.AWSCacheTTL,
		EndpointURL: cfg.AWSEndpoint,
	}, clockwork.NewRealClock())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
