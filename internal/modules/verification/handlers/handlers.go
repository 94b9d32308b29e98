// Package handlers provides HTTP handlers for the verification module.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/secrets"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/server"
)

// UserHeader carries the email of the signed-in user.
const UserHeader = "X-User-Email"

type SellerActionRequest struct {
	ProductID string   `param:"productId" binding:"required"`
	SellerID  string   `json:"sellerId" binding:"required"`
	Documents []string `json:"documents"`
}

type VerifyRequest struct {
	ProductID string `param:"productId" binding:"required"`
}

type RejectRequest struct {
	ProductID string `param:"productId" binding:"required"`
	Reason    string `json:"reason"`
}

type PendingRequest struct{}

type HistoryRequest struct {
	ProductID string `param:"productId" binding:"required"`
}

type RequestsResponse struct {
	Requests []domain.Request `json:"requests"`
}

// VerificationServiceInterface defines the service contract for handlers
type VerificationServiceInterface interface {
	RequestVerification(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error)
	Verify(ctx context.Context, productID, adminID string) (*domain.Request, error)
	Reject(ctx context.Context, productID, adminID, reason string) (*domain.Request, error)
	CancelRequest(ctx context.Context, productID, sellerID string) error
	ReRequest(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error)
	History(ctx context.Context, productID string) ([]domain.Request, error)
	Pending(ctx context.Context) ([]domain.Request, error)
}

type VerificationHandler struct {
	service VerificationServiceInterface
	admins  secrets.AdminStore
	logger  logger.Logger
}

func NewVerificationHandler(s VerificationServiceInterface, admins secrets.AdminStore, l logger.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: s,
		admins:  admins,
		logger:  l,
	}
}

// requireAdmin returns the caller's email when it is on the admin allow-list.
func (h *VerificationHandler) requireAdmin(r *http.Request) (string, server.IAPIError) {
	email := strings.TrimSpace(r.Header.Get(UserHeader))
	if email == "" {
		return "", server.NewForbiddenError("admin access required")
	}

	ok, err := h.admins.IsAdmin(r.Context(), email)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to resolve admin allow-list")
		return "", server.NewInternalServerError("Internal error")
	}
	if !ok {
		h.logger.Warn().Str("email", email).Msg("Rejected non-admin verification review")
		return "", server.NewForbiddenError("admin access required")
	}
	return email, nil
}

func (h *VerificationHandler) RequestVerification(req SellerActionRequest, ctx server.HandlerContext) (server.Result[*domain.Request], server.IAPIError) {
	created, err := h.service.RequestVerification(ctx.Echo.Request().Context(), req.ProductID, req.SellerID, req.Documents)
	if err != nil {
		return server.Result[*domain.Request]{}, h.fail(err, req.ProductID)
	}
	return server.Created(created), nil
}

func (h *VerificationHandler) CancelRequest(req SellerActionRequest, ctx server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	if err := h.service.CancelRequest(ctx.Echo.Request().Context(), req.ProductID, req.SellerID); err != nil {
		return server.NoContentResult{}, h.fail(err, req.ProductID)
	}
	return server.NoContent(), nil
}

func (h *VerificationHandler) ReRequest(req SellerActionRequest, ctx server.HandlerContext) (server.Result[*domain.Request], server.IAPIError) {
	created, err := h.service.ReRequest(ctx.Echo.Request().Context(), req.ProductID, req.SellerID, req.Documents)
	if err != nil {
		return server.Result[*domain.Request]{}, h.fail(err, req.ProductID)
	}
	return server.Created(created), nil
}

func (h *VerificationHandler) Verify(req VerifyRequest, ctx server.HandlerContext) (*domain.Request, server.IAPIError) {
	r := ctx.Echo.Request()
	adminID, apiErr := h.requireAdmin(r)
	if apiErr != nil {
		return nil, apiErr
	}

	reviewed, err := h.service.Verify(r.Context(), req.ProductID, adminID)
	if err != nil {
		return nil, h.fail(err, req.ProductID)
	}
	return reviewed, nil
}

func (h *VerificationHandler) Reject(req RejectRequest, ctx server.HandlerContext) (*domain.Request, server.IAPIError) {
	r := ctx.Echo.Request()
	adminID, apiErr := h.requireAdmin(r)
	if apiErr != nil {
		return nil, apiErr
	}

	reviewed, err := h.service.Reject(r.Context(), req.ProductID, adminID, req.Reason)
	if err != nil {
		return nil, h.fail(err, req.ProductID)
	}
	return reviewed, nil
}

// Pending lists the admin review queue.
func (h *VerificationHandler) Pending(_ PendingRequest, ctx server.HandlerContext) (*RequestsResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	if _, apiErr := h.requireAdmin(r); apiErr != nil {
		return nil, apiErr
	}

	requests, err := h.service.Pending(r.Context())
	if err != nil {
		return nil, h.fail(err, "")
	}
	return &RequestsResponse{Requests: requests}, nil
}

func (h *VerificationHandler) History(req HistoryRequest, ctx server.HandlerContext) (*RequestsResponse, server.IAPIError) {
	requests, err := h.service.History(ctx.Echo.Request().Context(), req.ProductID)
	if err != nil {
		return nil, h.fail(err, req.ProductID)
	}
	return &RequestsResponse{Requests: requests}, nil
}

func (h *VerificationHandler) fail(err error, productID string) server.IAPIError {
	apiErr := apperrors.ToAPIError(err, "Product")
	if apiErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("productId", productID).Msg("Verification request failed")
	}
	return apiErr
}

// RegisterRoutes registers verification HTTP routes
func (h *VerificationHandler) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	server.POST(hr, r, "/verification/:productId/request", h.RequestVerification)
	server.POST(hr, r, "/verification/:productId/cancel", h.CancelRequest)
	server.POST(hr, r, "/verification/:productId/rerequest", h.ReRequest)
	server.POST(hr, r, "/verification/:productId/verify", h.Verify)
	server.POST(hr, r, "/verification/:productId/reject", h.Reject)
	server.GET(hr, r, "/verification/pending", h.Pending)
	server.GET(hr, r, "/verification/:productId/history", h.History)
}
