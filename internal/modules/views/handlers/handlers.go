// Package handlers provides HTTP handlers for the views module.
package handlers

import (
	"context"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/views/identity"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/server"
)

// Request types

// TrackViewRequest records a view of one product by the calling visitor.
type TrackViewRequest struct {
	ProductID string `param:"productId" binding:"required"`
}

// QueueViewsRequest queues views of several visible products.
type QueueViewsRequest struct {
	ProductIDs []string `json:"productIds" binding:"required"`
}

// FlushViewsRequest forces queued views to be written.
type FlushViewsRequest struct{}

// GetViewStatsRequest is the request for getting the counter of a product.
type GetViewStatsRequest struct {
	ProductID string `param:"productId" binding:"required"`
	Days      int    `query:"days"`
}

// ListTopViewedRequest is the request for getting top viewed products.
type ListTopViewedRequest struct {
	Days  int `query:"days"`
	Limit int `query:"limit"`
}

// Response types

// TrackViewResponse is the outcome of a tracking call.
type TrackViewResponse struct {
	Recorded  bool   `json:"recorded"`
	ViewCount int64  `json:"viewCount"`
	Formatted string `json:"formatted"`
}

// QueueViewsResponse reports how many views were newly queued.
type QueueViewsResponse struct {
	Queued int `json:"queued"`
}

// FlushViewsResponse reports how many queued views were counted.
type FlushViewsResponse struct {
	Recorded int `json:"recorded"`
}

// TopViewedResponse is the response for top viewed products.
type TopViewedResponse struct {
	Products []domain.TopProduct `json:"products"`
}

// ViewsServiceInterface defines the service contract for handlers.
type ViewsServiceInterface interface {
	ResolveVisitor(ctx context.Context, env domain.Environment, store identity.Store) string
	Track(ctx context.Context, v domain.Visit) domain.TrackResult
	Queue(visits []domain.Visit) int
	Flush(ctx context.Context) int
	Stats(ctx context.Context, productID, visitorID, locale string, historyDays int) (*domain.ViewStats, error)
	TopViewed(ctx context.Context, days, limit int) ([]domain.TopProduct, error)
}

// ViewsHandler handles HTTP requests for view tracking.
type ViewsHandler struct {
	service ViewsServiceInterface
	logger  logger.Logger
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(s ViewsServiceInterface, l logger.Logger) *ViewsHandler {
	return &ViewsHandler{
		service: s,
		logger:  l,
	}
}

func (h *ViewsHandler) visitor(ctx server.HandlerContext) string {
	req := ctx.Echo.Request()
	return h.service.ResolveVisitor(req.Context(), environmentFromRequest(req), cookieStore{c: ctx.Echo})
}

// TrackView handles POST /views/:productId. Tracking never fails the request.
func (h *ViewsHandler) TrackView(req TrackViewRequest, ctx server.HandlerContext) (*TrackViewResponse, server.IAPIError) {
	visit := domain.Visit{
		ProductID: req.ProductID,
		VisitorID: h.visitor(ctx),
		SessionID: ctx.Echo.Request().Header.Get(SessionHeader),
	}

	result := h.service.Track(ctx.Echo.Request().Context(), visit)
	return &TrackViewResponse{
		Recorded:  result.Recorded,
		ViewCount: result.ViewCount,
		Formatted: domain.FormatCount(result.ViewCount, requestLocale(ctx.Echo.Request())),
	}, nil
}

// QueueViews handles POST /views/queue.
func (h *ViewsHandler) QueueViews(req QueueViewsRequest, ctx server.HandlerContext) (*QueueViewsResponse, server.IAPIError) {
	visitorID := h.visitor(ctx)
	sessionID := ctx.Echo.Request().Header.Get(SessionHeader)

	visits := make([]domain.Visit, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		visits = append(visits, domain.Visit{ProductID: id, VisitorID: visitorID, SessionID: sessionID})
	}

	return &QueueViewsResponse{Queued: h.service.Queue(visits)}, nil
}

// FlushViews handles POST /views/flush, sent when a page is being torn down.
func (h *ViewsHandler) FlushViews(_ FlushViewsRequest, ctx server.HandlerContext) (*FlushViewsResponse, server.IAPIError) {
	return &FlushViewsResponse{Recorded: h.service.Flush(ctx.Echo.Request().Context())}, nil
}

// GetViewStats handles GET /views/:productId.
func (h *ViewsHandler) GetViewStats(req GetViewStatsRequest, ctx server.HandlerContext) (*domain.ViewStats, server.IAPIError) {
	r := ctx.Echo.Request()
	stats, err := h.service.Stats(r.Context(), req.ProductID, h.visitor(ctx), requestLocale(r), req.Days)
	if err != nil {
		return nil, apperrors.ToAPIError(err, "Product")
	}
	return stats, nil
}

// GetTopViewed handles GET /views/top.
func (h *ViewsHandler) GetTopViewed(req ListTopViewedRequest, ctx server.HandlerContext) (*TopViewedResponse, server.IAPIError) {
	top, err := h.service.TopViewed(ctx.Echo.Request().Context(), req.Days, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Int("limit", req.Limit).Msg("Failed to get top viewed")
		return nil, apperrors.ToAPIError(err, "Views")
	}
	if top == nil {
		top = []domain.TopProduct{}
	}
	return &TopViewedResponse{Products: top}, nil
}

// RegisterRoutes registers view tracking HTTP routes. The beacon endpoints
// answer without the response envelope.
func (h *ViewsHandler) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	server.POST(hr, r, "/views/queue", h.QueueViews)
	server.POST(hr, r, "/views/flush", h.FlushViews,
		server.WithRawResponse(),
		server.WithTags("views"),
	)
	server.POST(hr, r, "/views/:productId", h.TrackView,
		server.WithRawResponse(),
		server.WithTags("views"),
	)
	server.GET(hr, r, "/views/top", h.GetTopViewed)
	server.GET(hr, r, "/views/:productId", h.GetViewStats)
}
