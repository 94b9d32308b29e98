package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/gaborage/go-bricks/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/microcosm-cc/bluemonday"
)

// plainText strips markup from buyer-supplied review text.
var plainText = bluemonday.StrictPolicy()

var (
	ErrVoucherRejected = fmt.Errorf("%w: voucher is not valid for this seller", apperrors.ErrForbidden)
	ErrRemoteWrite     = errors.New("remote write failed")
)

// ReviewInput is a buyer review submitted with a voucher code.
type ReviewInput struct {
	SellerID    string `validate:"required"`
	VoucherCode string `validate:"required"`
	BuyerName   string `validate:"required,max=80"`
	Score       int    `validate:"min=1,max=5"`
	Comment     string `validate:"max=1000"`
}

// CatalogService serves catalog lookups from the local snapshot and keeps the
// snapshot in step with the optional remote store.
type CatalogService struct {
	snapshot *repository.Snapshot
	remote   repository.RemoteProvider
	clock    clockwork.Clock
	validate *validator.Validate
	logger   logger.Logger
}

// NewService creates the catalog service. remote may be nil when no remote store is configured.
func NewService(snapshot *repository.Snapshot, remote repository.RemoteProvider, log logger.Logger, clock clockwork.Clock) *CatalogService {
	return &CatalogService{
		snapshot: snapshot,
		remote:   remote,
		clock:    clock,
		validate: validator.New(),
		logger:   log,
	}
}

// GetProductByID retrieves a product by its ID
func (s *CatalogService) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	p, err := s.snapshot.Product(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSellerByID retrieves a seller by its ID
func (s *CatalogService) GetSellerByID(_ context.Context, id string) (*domain.Seller, error) {
	seller, err := s.snapshot.Seller(id)
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// GetProductsBySeller lists the products of a seller in catalog order
func (s *CatalogService) GetProductsBySeller(_ context.Context, sellerID string) ([]domain.Product, error) {
	if _, err := s.snapshot.Seller(sellerID); err != nil {
		return nil, err
	}
	return s.snapshot.ProductsBySeller(sellerID), nil
}

// GetSellerRatingSummary aggregates the ratings of a seller
func (s *CatalogService) GetSellerRatingSummary(_ context.Context, sellerID string) (*domain.RatingSummary, error) {
	if _, err := s.snapshot.Seller(sellerID); err != nil {
		return nil, err
	}
	summary := domain.Summarize(sellerID, s.snapshot.RatingsBySeller(sellerID))
	return &summary, nil
}

// SaveProduct writes a product back into the local snapshot
func (s *CatalogService) SaveProduct(_ context.Context, product *domain.Product) error {
	return s.snapshot.SaveProduct(*product)
}

// RemoteEnabled reports whether a remote store is configured
func (s *CatalogService) RemoteEnabled() bool {
	return s.remote != nil
}

// Sync replaces the local snapshot with the remote catalog.
// On failure the current snapshot is kept.
func (s *CatalogService) Sync(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	data, err := s.remote.LoadAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sync catalog, keeping current snapshot")
		return fmt.Errorf("failed to sync catalog: %w", err)
	}

	s.snapshot.Replace(data)
	s.logger.Info().
		Int("sellers", len(data.Sellers)).
		Int("products", len(data.Products)).
		Int("ratings", len(data.Ratings)).
		Msg("Catalog snapshot replaced from remote store")
	return nil
}

// SubmitReview records a buyer rating unlocked by a single-use voucher of the seller.
// The voucher is claimed in the snapshot before any remote write; a failed
// remote write releases the claim and leaves the ratings unchanged.
func (s *CatalogService) SubmitReview(ctx context.Context, in ReviewInput) (*domain.Rating, error) {
	in.BuyerName = strings.TrimSpace(plainText.Sanitize(in.BuyerName))
	in.Comment = strings.TrimSpace(plainText.Sanitize(in.Comment))
	in.VoucherCode = strings.TrimSpace(in.VoucherCode)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if _, err := s.snapshot.Seller(in.SellerID); err != nil {
		return nil, err
	}

	voucher, ok := s.snapshot.ClaimVoucher(in.VoucherCode, in.SellerID)
	if !ok {
		s.logger.Warn().Str("sellerId", in.SellerID).Msg("Review rejected: voucher invalid, foreign or used")
		return nil, ErrVoucherRejected
	}

	rating := domain.Rating{
		ID:          uuid.New().String(),
		SellerID:    in.SellerID,
		BuyerName:   in.BuyerName,
		Score:       in.Score,
		Comment:     in.Comment,
		VoucherCode: in.VoucherCode,
		CreatedAt:   s.clock.Now().UTC(),
	}

	if s.remote != nil {
		if err := s.writeReview(ctx, voucher.Code, &rating); err != nil {
			// A voucher the remote store already consumed stays claimed.
			if errors.Is(err, ErrRemoteWrite) {
				s.snapshot.ReleaseVoucher(voucher.Code)
			}
			return nil, err
		}
	}

	s.snapshot.AddRating(rating)

	s.logger.Info().Str("sellerId", in.SellerID).Int("score", in.Score).Msg("Review submitted")
	return &rating, nil
}

func (s *CatalogService) writeReview(ctx context.Context, code string, rating *domain.Rating) error {
	if err := s.remote.MarkVoucherUsed(ctx, code); err != nil {
		if errors.Is(err, repository.ErrVoucherNotFound) {
			return ErrVoucherRejected
		}
		s.logger.Error().Err(err).Str("sellerId", rating.SellerID).Msg("Failed to consume voucher remotely")
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if err := s.remote.InsertRating(ctx, rating); err != nil {
		s.logger.Error().Err(err).Str("sellerId", rating.SellerID).Msg("Failed to store rating remotely")
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}
