// Package identity resolves the pseudo-anonymous visitor id used to
// deduplicate product views. It is a best-effort signal, not an identity system.
package identity

import (
	"context"
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/gaborage/go-bricks/logger"
	"github.com/google/uuid"
)

const sessionPrefix = "session-"

// Store persists the visitor id of one device or browser profile.
// LoadVisitorID returns an empty id when nothing has been stored yet.
type Store interface {
	LoadVisitorID(ctx context.Context) (string, error)
	SaveVisitorID(ctx context.Context, id string) error
}

// Resolver hands out visitor ids.
type Resolver struct {
	logger logger.Logger
}

func NewResolver(log logger.Logger) *Resolver {
	return &Resolver{logger: log}
}

// GetOrCreateVisitorID returns the persisted visitor id, creating one from the
// environment fingerprint plus a random suffix on first use. When the store
// cannot be read or written it returns a session-scoped id that is not
// persisted, so views from that visitor may be counted again after a reload.
func (r *Resolver) GetOrCreateVisitorID(ctx context.Context, env domain.Environment, store Store) string {
	id, err := store.LoadVisitorID(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("Visitor id store unavailable, using session id")
		return NewSessionID()
	}
	if id != "" {
		return id
	}

	id = env.Fingerprint() + "-" + randomSuffix()
	if err := store.SaveVisitorID(ctx, id); err != nil {
		r.logger.Debug().Err(err).Msg("Visitor id not persisted, using session id")
		return NewSessionID()
	}
	return id
}

// NewSessionID returns a random id that lives only as long as the current session.
func NewSessionID() string {
	return sessionPrefix + uuid.New().String()
}

// IsSessionID reports whether id was produced by NewSessionID.
func IsSessionID(id string) bool {
	return strings.HasPrefix(id, sessionPrefix)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
