// Package handlers provides HTTP handlers for the catalog module.
package handlers

import (
	"context"
	"time"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/service"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	verification "github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/server"
)

type GetProductRequest struct {
	ID string `param:"id" binding:"required"`
}

type GetSellerRequest struct {
	ID string `param:"id" binding:"required"`
}

type SubmitReviewRequest struct {
	SellerID    string `param:"id" binding:"required"`
	VoucherCode string `json:"voucherCode" binding:"required"`
	BuyerName   string `json:"buyerName" binding:"required"`
	Score       int    `json:"score" binding:"required"`
	Comment     string `json:"comment"`
}

type ProductResponse struct {
	ID                 string   `json:"id"`
	SellerID           string   `json:"sellerId"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	Price              int64    `json:"price"`
	Category           string   `json:"category,omitempty"`
	Images             []string `json:"images,omitempty"`
	VerificationStatus string   `json:"verificationStatus"`
	IsVerified         bool     `json:"isVerified"`
	VerifiedAt         string   `json:"verifiedAt,omitempty"`
	CreatedDate        string   `json:"createdDate"`
}

type SellerResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	City     string `json:"city,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	JoinedAt string `json:"joinedAt"`
}

type SellerProductsResponse struct {
	SellerID string            `json:"sellerId"`
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

type RatingResponse struct {
	ID        string `json:"id"`
	SellerID  string `json:"sellerId"`
	BuyerName string `json:"buyerName"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:                 p.ID,
		SellerID:           p.SellerID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		Category:           p.Category,
		Images:             p.Images,
		VerificationStatus: string(p.Status()),
		IsVerified:         p.IsVerified,
		VerifiedAt:         p.VerifiedAt,
		CreatedDate:        p.CreatedAt.Format(time.RFC3339),
	}
}

func ToSellerResponse(s *domain.Seller) *SellerResponse {
	return &SellerResponse{
		ID:       s.ID,
		Name:     s.Name,
		Phone:    s.Phone,
		City:     s.City,
		Avatar:   s.Avatar,
		JoinedAt: s.JoinedAt.Format(time.RFC3339),
	}
}

// CatalogServiceInterface defines the service contract for handlers
type CatalogServiceInterface interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetSellerByID(ctx context.Context, id string) (*domain.Seller, error)
	GetProductsBySeller(ctx context.Context, sellerID string) ([]domain.Product, error)
	GetSellerRatingSummary(ctx context.Context, sellerID string) (*domain.RatingSummary, error)
	SubmitReview(ctx context.Context, in service.ReviewInput) (*domain.Rating, error)
}

type CatalogHandler struct {
	service CatalogServiceInterface
	logger  logger.Logger
}

func NewCatalogHandler(s CatalogServiceInterface, l logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: s,
		logger:  l,
	}
}

func (h *CatalogHandler) GetProduct(req GetProductRequest, ctx server.HandlerContext) (*ProductResponse, server.IAPIError) {
	product, err := h.service.GetProductByID(ctx.Echo.Request().Context(), req.ID)
	if err != nil {
		return nil, h.fail(err, "Product", req.ID)
	}

	return ToProductResponse(product), nil
}

func (h *CatalogHandler) GetSeller(req GetSellerRequest, ctx server.HandlerContext) (*SellerResponse, server.IAPIError) {
	seller, err := h.service.GetSellerByID(ctx.Echo.Request().Context(), req.ID)
	if err != nil {
		return nil, h.fail(err, "Seller", req.ID)
	}

	return ToSellerResponse(seller), nil
}

// ListSellerProducts lists a seller's products, verified ones first.
func (h *CatalogHandler) ListSellerProducts(req GetSellerRequest, ctx server.HandlerContext) (*SellerProductsResponse, server.IAPIError) {
	products, err := h.service.GetProductsBySeller(ctx.Echo.Request().Context(), req.ID)
	if err != nil {
		return nil, h.fail(err, "Seller", req.ID)
	}

	sorted := verification.SortByVerification(products)
	productResponses := make([]ProductResponse, len(sorted))
	for i := range sorted {
		productResponses[i] = *ToProductResponse(&sorted[i])
	}

	return &SellerProductsResponse{
		SellerID: req.ID,
		Products: productResponses,
		Total:    len(productResponses),
	}, nil
}

func (h *CatalogHandler) GetRatingSummary(req GetSellerRequest, ctx server.HandlerContext) (*domain.RatingSummary, server.IAPIError) {
	summary, err := h.service.GetSellerRatingSummary(ctx.Echo.Request().Context(), req.ID)
	if err != nil {
		return nil, h.fail(err, "Seller", req.ID)
	}

	return summary, nil
}

func (h *CatalogHandler) SubmitReview(req SubmitReviewRequest, ctx server.HandlerContext) (server.Result[*RatingResponse], server.IAPIError) {
	rating, err := h.service.SubmitReview(ctx.Echo.Request().Context(), service.ReviewInput{
		SellerID:    req.SellerID,
		VoucherCode: req.VoucherCode,
		BuyerName:   req.BuyerName,
		Score:       req.Score,
		Comment:     req.Comment,
	})
	if err != nil {
		return server.Result[*RatingResponse]{}, h.fail(err, "Seller", req.SellerID)
	}

	return server.Created(&RatingResponse{
		ID:        rating.ID,
		SellerID:  rating.SellerID,
		BuyerName: rating.BuyerName,
		Score:     rating.Score,
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt.Format(time.RFC3339),
	}), nil
}

func (h *CatalogHandler) fail(err error, resource, id string) server.IAPIError {
	apiErr := apperrors.ToAPIError(err, resource)
	if apiErr.HTTPStatus() >= 500 {
		h.logger.Error().Err(err).Str("resource", resource).Str("id", id).Msg("Catalog request failed")
	}
	return apiErr
}

// RegisterRoutes registers catalog HTTP routes
func (h *CatalogHandler) RegisterRoutes(hr *server.HandlerRegistry, r server.RouteRegistrar) {
	server.GET(hr, r, "/products/:id", h.GetProduct)
	server.GET(hr, r, "/sellers/:id", h.GetSeller)
	server.GET(hr, r, "/sellers/:id/products", h.ListSellerProducts)
	server.GET(hr, r, "/sellers/:id/ratings/summary", h.GetRatingSummary)
	server.POST(hr, r, "/sellers/:id/reviews", h.SubmitReview)
}
