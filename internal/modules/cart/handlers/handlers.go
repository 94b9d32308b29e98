// Package handlers provides HTTP handlers for the cart module.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/checkout"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/server"
)

const (
	// CartHeader names the cart explicitly, e.g. for a signed-in user.
	CartHeader = "X-Cart-ID"
	// VisitorCookie is the visitor id cookie set by the views module.
	VisitorCookie = "mv_vid"
)

type GetCartRequest struct{}

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	ProductID string `param:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRequest struct {
	ProductID string `param:"productId" binding:"required"`
}

type CheckoutRequest struct {
	Locale string `json:"locale"`
}

type CartResponse struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     int64             `json:"total"`
}

type GroupsResponse struct {
	Groups []domain.SellerGroup `json:"groups"`
	Total  int64                `json:"total"`
}

// CartServiceInterface defines the service contract for handlers
type CartServiceInterface interface {
	Items(ctx context.Context, cartID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, cartID, productID string, qty int) ([]domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID string) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, cartID, productID string, qty int) ([]domain.CartItem, error)
	Clear(ctx context.Context, cartID string) error
	Total(ctx context.Context, cartID string) (int64, error)
	GroupBySeller(ctx context.Context, cartID string) ([]domain.SellerGroup, error)
	CompleteCheckout(ctx context.Context, cartID, locale string) (*service.CheckoutResult, error)
}

type CartHandler struct {
	service       CartServiceInterface
	defaultLocale string
	logger        logger.Logger
}

func NewCartHandler(s CartServiceInterface, defaultLocale string, l logger.Logger) *CartHandler {
	return &CartHandler{
		service:       s,
		defaultLocale: defaultLocale,
		logger:        l,
	}
}

// cartID prefers the explicit header and falls back to the visitor cookie.
func cartID(r *http.Request) (string, server.IAPIError) {
	if id := strings.TrimSpace(r.Header.Get(CartHeader)); id != "" {
		return id, nil
	}
	if c, err := r.Cookie(VisitorCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", server.NewBadRequestError("cart id is required")
}

func (h *CartHandler) respond(ctx context.Context, id string, items []domain.CartItem) (*CartResponse, server.IAPIError) {
	total, err := h.service.Total(ctx, id)
	if err != nil {
		return nil, h.fail(err, id)
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return &CartResponse{Items: items, ItemCount: domain.ItemCount(items), Total: total}, nil
}

func (h *CartHandler) GetCart(_ GetCartRequest, ctx server.HandlerContext) (*CartResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	items, err := h.service.Items(r.Context(), id)
	if err != nil {
		return nil, h.fail(err, id)
	}
	return h.respond(r.Context(), id, items)
}

func (h *CartHandler) AddItem(req AddItemRequest, ctx server.HandlerContext) (*CartResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	items, err := h.service.AddItem(r.Context(), id, req.ProductID, qty)
	if err != nil {
		return nil, h.fail(err, id)
	}
	return h.respond(r.Context(), id, items)
}

func (h *CartHandler) UpdateItem(req UpdateItemRequest, ctx server.HandlerContext) (*CartResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	items, err := h.service.UpdateQuantity(r.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		return nil, h.fail(err, id)
	}
	return h.respond(r.Context(), id, items)
}

func (h *CartHandler) RemoveItem(req RemoveItemRequest, ctx server.HandlerContext) (*CartResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	items, err := h.service.RemoveItem(r.Context(), id, req.ProductID)
	if err != nil {
		return nil, h.fail(err, id)
	}
	return h.respond(r.Context(), id, items)
}

func (h *CartHandler) ClearCart(_ GetCartRequest, ctx server.HandlerContext) (server.NoContentResult, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return server.NoContentResult{}, apiErr
	}

	if err := h.service.Clear(r.Context(), id); err != nil {
		return server.NoContentResult{}, h.fail(err, id)
	}
	return server.NoContent(), nil
}

func (h *CartHandler) GetGroups(_ GetCartRequest, ctx server.HandlerContext) (*GroupsResponse, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	groups, err := h.service.GroupBySeller(r.Context(), id)
	if err != nil {
		return nil, h.fail(err, id)
	}

	resp := &GroupsResponse{Groups: groups}
	if resp.Groups == nil {
		resp.Groups = []domain.SellerGroup{}
	}
	for _, g := range groups {
		resp.Total += g.Subtotal
	}
	return resp, nil
}

// Checkout opens a WhatsApp conversation per seller and clears the cart.
// The response carries the links the client opens in order.
func (h *CartHandler) Checkout(req CheckoutRequest, ctx server.HandlerContext) (*service.CheckoutResult, server.IAPIError) {
	r := ctx.Echo.Request()
	id, apiErr := cartID(r)
	if apiErr != nil {
		return nil, apiErr
	}

	locale := req.Locale
	if locale == "" {
		locale = h.defaultLocale
	}

	result, err := h.service.CompleteCheckout(r.Context(), id, locale)
	if err != nil {
		if result != nil && !errors.Is(err, apperrors.ErrValidation) {
			// Sellers were contacted; only clearing the cart failed.
			h.logger.Warn().Err(err).Str("cartId", id).Msg("Checkout returned with cart left intact")
			return result, nil
		}
		return nil, h.fail(err, id)
	}
	if result.Dispatches == nil {
		result.Dispatches = []checkout.Dispatch{}
	}
	return result, nil
}

func (h *CartHandler) fail(err error, id string) server.IAPIError {
	apiErr := apperrors.ToAPIError(err, "Product")
	if apiErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("cartId", id).Msg("Cart request failed")
	}
	return apiErr
}

// RegisterRoutes registers cart HTTP routes
func (h *CartHandler) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	server.GET(hr, r, "/cart", h.GetCart)
	server.DELETE(hr, r, "/cart", h.ClearCart)
	server.POST(hr, r, "/cart/items", h.AddItem)
	server.PUT(hr, r, "/cart/items/:productId", h.UpdateItem)
	server.DELETE(hr, r, "/cart/items/:productId", h.RemoveItem)
	server.GET(hr, r, "/cart/groups", h.GetGroups)
	server.POST(hr, r, "/cart/checkout", h.Checkout)
}
