// Package service provides business logic for the views module.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/identity"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/ledger"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/repository"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
	defaultTopDays  = 30
)

// ViewsService ties the visitor resolver, the view ledger and its batcher to
// the analytics archive.
type ViewsService struct {
	ledger   *ledger.Ledger
	batcher  *ledger.Batcher
	resolver *identity.Resolver
	archive  repository.Repository
	clock    clockwork.Clock
	logger   logger.Logger
}

// NewService creates a new views service.
func NewService(l *ledger.Ledger, b *ledger.Batcher, archive repository.Repository, clock clockwork.Clock, log logger.Logger) *ViewsService {
	return &ViewsService{
		ledger:   l,
		batcher:  b,
		resolver: identity.NewResolver(log),
		archive:  archive,
		clock:    clock,
		logger:   log,
	}
}

// ResolveVisitor returns the visitor id for the environment, see identity.Resolver.
func (s *ViewsService) ResolveVisitor(ctx context.Context, env domain.Environment, store identity.Store) string {
	return s.resolver.GetOrCreateVisitorID(ctx, env, store)
}

// Track counts a product view now. It never fails; an empty product id is not counted.
func (s *ViewsService) Track(ctx context.Context, v domain.Visit) domain.TrackResult {
	if v.ProductID == "" || v.VisitorID == "" {
		return domain.TrackResult{}
	}

	result := s.ledger.TrackView(ctx, v)
	if result.Recorded {
		s.logger.Debug().
			Str("productId", v.ProductID).
			Str("visitorId", v.VisitorID).
			Int("viewCount", int(result.ViewCount)).
			Msg("Product view recorded")
	}
	return result
}

// Queue adds visits to the debounced batch and returns how many were newly queued.
func (s *ViewsService) Queue(visits []domain.Visit) int {
	queued := 0
	for _, v := range visits {
		if v.ProductID == "" || v.VisitorID == "" {
			continue
		}
		if s.batcher.QueueView(v) {
			queued++
		}
	}
	return queued
}

// Flush tracks the queued visits immediately.
func (s *ViewsService) Flush(ctx context.Context) int {
	return s.batcher.Flush(ctx)
}

// Stats returns the product's counters formatted for locale, whether the
// visitor already viewed it, and historyDays days of daily counts.
func (s *ViewsService) Stats(ctx context.Context, productID, visitorID, locale string, historyDays int) (*domain.ViewStats, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product ID is required", apperrors.ErrValidation)
	}

	counter := s.ledger.Counter(ctx, productID)
	stats := &domain.ViewStats{
		ProductID:   productID,
		TotalViews:  counter.TotalViews,
		TodayViews:  counter.TodayViews,
		Formatted:   domain.FormatCount(counter.TotalViews, locale),
		LastUpdated: counter.LastUpdated,
	}
	if visitorID != "" {
		stats.ViewedByVisitor = s.ledger.WasViewedByVisitor(ctx, productID, visitorID)
	}
	if historyDays > 0 {
		stats.History = s.ledger.ProductHistory(ctx, productID, historyDays)
	}
	return stats, nil
}

// Archive copies the retained daily buckets into the analytics database.
func (s *ViewsService) Archive(ctx context.Context) (int, error) {
	daily, err := s.ledger.Daily(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read daily views: %w", err)
	}

	written, err := s.archive.UpsertDaily(ctx, daily)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("written", written).
			Msg("Failed to archive daily views")
		return written, fmt.Errorf("failed to archive daily views: %w", err)
	}
	return written, nil
}

// TopViewed returns the most viewed products of the last days days from the archive.
func (s *ViewsService) TopViewed(ctx context.Context, days, limit int) ([]domain.TopProduct, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		return nil, fmt.Errorf("%w: limit must not exceed %d", apperrors.ErrValidation, maxTopLimit)
	}
	if days <= 0 {
		days = defaultTopDays
	}

	since := s.clock.Now().AddDate(0, 0, -(days - 1)).Format(time.DateOnly)
	top, err := s.archive.GetTopViewed(ctx, since, limit)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("limit", limit).
			Msg("Failed to get top viewed products")
		return nil, fmt.Errorf("failed to get top viewed products: %w", err)
	}
	return top, nil
}

// Close flushes pending visits.
func (s *ViewsService) Close(ctx context.Context) {
	if n := s.batcher.Close(ctx); n > 0 {
		s.logger.Info().Int("recorded", n).Msg("Flushed queued views on shutdown")
	}
}
