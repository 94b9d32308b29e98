// Package service provides the cart operations and the checkout flow.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/checkout"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/repository"
	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/gaborage/go-bricks/logger"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

var ErrEmptyCart = fmt.Errorf("%w: cart is empty", apperrors.ErrValidation)

// CatalogLookup is the part of the catalog the cart reads from.
type CatalogLookup interface {
	GetProductByID(ctx context.Context, id string) (*catalog.Product, error)
	GetSellerByID(ctx context.Context, id string) (*catalog.Seller, error)
}

// ChannelFactory returns the outbound channel used for one checkout.
type ChannelFactory func() checkout.Channel

type addInput struct {
	CartID    string `validate:"required"`
	ProductID string `validate:"required"`
	Quantity  int    `validate:"min=1"`
}

// CheckoutResult is the outcome of a completed checkout.
type CheckoutResult struct {
	Dispatches []checkout.Dispatch `json:"dispatches"`
	GrandTotal int64               `json:"grandTotal"`
}

// CartService operates on carts identified by cart id.
type CartService struct {
	repo       repository.Repository
	catalog    CatalogLookup
	newChannel ChannelFactory
	clock      clockwork.Clock
	validate   *validator.Validate
	logger     logger.Logger
}

// NewService creates a new cart service.
func NewService(repo repository.Repository, lookup CatalogLookup, newChannel ChannelFactory, clock clockwork.Clock, log logger.Logger) *CartService {
	return &CartService{
		repo:       repo,
		catalog:    lookup,
		newChannel: newChannel,
		clock:      clock,
		validate:   validator.New(),
		logger:     log,
	}
}

// Items returns the stored cart lines.
func (s *CartService) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	return s.repo.Load(ctx, cartID)
}

// AddItem adds qty of the product, increasing the quantity of an existing line.
// Unknown products fail with a not-found error.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, qty int) ([]domain.CartItem, error) {
	if err := s.validate.Struct(addInput{CartID: cartID, ProductID: productID, Quantity: qty}); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if i := domain.Find(items, productID); i >= 0 {
		items[i].Quantity += qty
	} else {
		items = append(items, domain.CartItem{
			ProductID: productID,
			Quantity:  qty,
			SellerID:  product.SellerID,
			AddedAt:   s.clock.Now().UTC(),
		})
	}

	if err := s.repo.Save(ctx, cartID, items); err != nil {
		s.logger.Error().Err(err).Str("productId", productID).Msg("Failed to save cart")
		return nil, err
	}
	return items, nil
}

// RemoveItem deletes the product's line. Removing an absent product is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) ([]domain.CartItem, error) {
	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := domain.Find(items, productID)
	if i < 0 {
		return items, nil
	}
	items = append(items[:i], items[i+1:]...)

	if err := s.repo.Save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets the quantity exactly. A quantity of zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, qty int) ([]domain.CartItem, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := domain.Find(items, productID)
	if i < 0 {
		return items, nil
	}
	items[i].Quantity = qty

	if err := s.repo.Save(ctx, cartID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, cartID string) error {
	return s.repo.Delete(ctx, cartID)
}

// ItemCount is the sum of all quantities.
func (s *CartService) ItemCount(ctx context.Context, cartID string) (int, error) {
	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return 0, err
	}
	return domain.ItemCount(items), nil
}

// Total is the sum of the seller group subtotals, priced at the current
// catalog price. Lines left out of the groups do not count.
func (s *CartService) Total(ctx context.Context, cartID string) (int64, error) {
	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, g := range s.group(ctx, items) {
		total += g.Subtotal
	}
	return total, nil
}

// GroupBySeller partitions the resolvable lines by seller in order of first
// appearance. Lines with a missing product or seller are left out, and so are
// sellers left without lines.
func (s *CartService) GroupBySeller(ctx context.Context, cartID string) ([]domain.SellerGroup, error) {
	items, err := s.repo.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.group(ctx, items), nil
}

func (s *CartService) group(ctx context.Context, items []domain.CartItem) []domain.SellerGroup {
	var groups []domain.SellerGroup
	index := map[string]int{}

	for _, it := range items {
		product, err := s.catalog.GetProductByID(ctx, it.ProductID)
		if err != nil {
			s.logStale(err, it)
			continue
		}
		sellerID := it.SellerID
		if sellerID == "" {
			sellerID = product.SellerID
		}
		i, ok := index[sellerID]
		if !ok {
			seller, err := s.catalog.GetSellerByID(ctx, sellerID)
			if err != nil {
				s.logStale(err, it)
				continue
			}
			groups = append(groups, domain.SellerGroup{Seller: *seller})
			i = len(groups) - 1
			index[sellerID] = i
		}

		lineTotal := product.Price * int64(it.Quantity)
		groups[i].Lines = append(groups[i].Lines, domain.Line{
			Product:   *product,
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		groups[i].Subtotal += lineTotal
	}
	return groups
}

func (s *CartService) logStale(err error, it domain.CartItem) {
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Debug().Str("productId", it.ProductID).Str("sellerId", it.SellerID).Msg("Skipping stale cart line")
		return
	}
	s.logger.Warn().Err(err).Str("productId", it.ProductID).Msg("Cart line could not be resolved")
}

// ProcessCheckout builds one message per seller group and returns a sequencer
// that opens them one at a time. The cart itself is not changed.
func (s *CartService) ProcessCheckout(ctx context.Context, cartID, locale string) (*checkout.Sequencer, error) {
	groups, err := s.GroupBySeller(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrEmptyCart
	}

	return checkout.NewSequencer(checkout.BuildMessages(groups, locale), s.newChannel(), s.logger), nil
}

// CompleteCheckout opens every seller's conversation and then clears the cart.
func (s *CartService) CompleteCheckout(ctx context.Context, cartID, locale string) (*CheckoutResult, error) {
	seq, err := s.ProcessCheckout(ctx, cartID, locale)
	if err != nil {
		return nil, err
	}

	for seq.OpenNext(ctx) {
	}

	result := &CheckoutResult{Dispatches: seq.Dispatched()}
	for _, m := range seq.Messages() {
		result.GrandTotal += m.Total
	}

	if err := s.repo.Delete(ctx, cartID); err != nil {
		s.logger.Error().Err(err).Str("cartId", cartID).Msg("Checkout dispatched but cart not cleared")
		return result, err
	}

	s.logger.Info().
		Str("cartId", cartID).
		Int("sellers", len(result.Dispatches)).
		Msg("Checkout completed")
	return result, nil
}
