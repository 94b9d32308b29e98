package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/repository"
	"github.com/gaborage/go-bricks/logger"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var ErrRemoteWrite = errors.New("remote write failed")

// CatalogPort reads products and writes back their verification projection.
type CatalogPort interface {
	GetProductByID(ctx context.Context, id string) (*catalog.Product, error)
	SaveProduct(ctx context.Context, product *catalog.Product) error
}

// LocalStore is the local snapshot of verification requests.
type LocalStore interface {
	Load(ctx context.Context) ([]domain.Request, error)
	Save(ctx context.Context, requests []domain.Request) error
}

// VerificationService runs the product verification state machine:
// none -> pending -> verified | rejected, and rejected -> pending on re-request.
//
// With a remote store configured the remote write happens first and local state
// only changes when it succeeds.
type VerificationService struct {
	mu      sync.Mutex
	local   LocalStore
	remote  repository.Remote
	catalog CatalogPort
	clock   clockwork.Clock
	logger  logger.Logger
}

// NewService creates the verification service. remote may be nil.
func NewService(local LocalStore, remote repository.Remote, port CatalogPort, clock clockwork.Clock, log logger.Logger) *VerificationService {
	return &VerificationService{
		local:   local,
		remote:  remote,
		catalog: port,
		clock:   clock,
		logger:  log,
	}
}

// change is one transition: the product projection plus the request to store or drop.
type change struct {
	product *catalog.Product
	save    *domain.Request
	drop    *domain.Request
}

// RequestVerification opens a pending request for a product owned by sellerID.
func (s *VerificationService) RequestVerification(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.request(ctx, product, sellerID, documents)
}

func (s *VerificationService) request(ctx context.Context, product *catalog.Product, sellerID string, documents []string) (*domain.Request, error) {
	if product.SellerID != sellerID {
		return nil, domain.ErrNotOwner
	}
	if err := checkOpen(product.Status()); err != nil {
		return nil, err
	}

	// The product projection can lag behind the stored requests after a restart.
	requests, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}
	if latest, ok := latestFor(requests, product.ID); ok {
		if err := checkOpen(latest.Status); err != nil {
			return nil, err
		}
	}

	req := domain.Request{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		SellerID:    sellerID,
		Status:      catalog.StatusPending,
		RequestedAt: s.clock.Now().UTC(),
		Documents:   slices.Clone(documents),
	}
	product.SetVerification(catalog.StatusPending, "")

	if err := s.apply(ctx, change{product: product, save: &req}); err != nil {
		return nil, err
	}

	s.logger.Info().Str("productId", product.ID).Str("sellerId", sellerID).Msg("Verification requested")
	return &req, nil
}

// Verify approves the pending request of a product.
func (s *VerificationService) Verify(ctx context.Context, productID, adminID string) (*domain.Request, error) {
	return s.review(ctx, productID, adminID, catalog.StatusVerified, "")
}

// Reject turns down the pending request of a product. reason must not be blank.
func (s *VerificationService) Reject(ctx context.Context, productID, adminID, reason string) (*domain.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	return s.review(ctx, productID, adminID, catalog.StatusRejected, reason)
}

func (s *VerificationService) review(ctx context.Context, productID, adminID string, outcome catalog.VerificationStatus, reason string) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status() != catalog.StatusPending {
		return nil, domain.ErrNotPending
	}

	requests, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	req, ok := pendingFor(requests, productID)
	if !ok {
		// Pending status synced from the remote store without a local request.
		req = domain.Request{
			ID:          uuid.New().String(),
			ProductID:   productID,
			SellerID:    product.SellerID,
			RequestedAt: now,
		}
	}
	req.Review(outcome, adminID, reason, now)
	product.SetVerification(outcome, domain.DateOnly(now))

	if err := s.apply(ctx, change{product: product, save: &req}); err != nil {
		return nil, err
	}

	s.logger.Info().Str("productId", productID).Str("status", string(outcome)).Str("reviewedBy", adminID).Msg("Verification reviewed")
	return &req, nil
}

// CancelRequest withdraws the seller's pending request and resets the product to none.
func (s *VerificationService) CancelRequest(ctx context.Context, productID, sellerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.SellerID != sellerID {
		return domain.ErrNotOwner
	}
	if product.Status() != catalog.StatusPending {
		return domain.ErrNotPending
	}

	requests, err := s.local.Load(ctx)
	if err != nil {
		return err
	}

	c := change{product: product}
	if req, ok := pendingFor(requests, productID); ok {
		c.drop = &req
	}
	product.SetVerification(catalog.StatusNone, "")

	if err := s.apply(ctx, c); err != nil {
		return err
	}

	s.logger.Info().Str("productId", productID).Msg("Verification request cancelled")
	return nil
}

// ReRequest submits a rejected product for verification again.
func (s *VerificationService) ReRequest(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status() != catalog.StatusRejected {
		return nil, domain.ErrNotRejected
	}

	product.SetVerification(catalog.StatusNone, "")
	return s.request(ctx, product, sellerID, documents)
}

// History lists the requests of a product, newest first.
func (s *VerificationService) History(ctx context.Context, productID string) ([]domain.Request, error) {
	if _, err := s.catalog.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	requests, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}

	history := make([]domain.Request, 0)
	for _, req := range requests {
		if req.ProductID == productID {
			history = append(history, req)
		}
	}
	slices.SortStableFunc(history, func(a, b domain.Request) int {
		return b.RequestedAt.Compare(a.RequestedAt)
	})
	return history, nil
}

// RestoreProjection brings the catalog status of every product with stored
// requests in line with its latest request. It returns the number of products
// changed. Products missing from the catalog are skipped.
func (s *VerificationService) RestoreProjection(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests, err := s.local.Load(ctx)
	if err != nil {
		return 0, err
	}

	seen := map[string]bool{}
	restored := 0
	for _, req := range requests {
		if seen[req.ProductID] {
			continue
		}
		seen[req.ProductID] = true

		latest, _ := latestFor(requests, req.ProductID)
		product, err := s.catalog.GetProductByID(ctx, req.ProductID)
		if err != nil {
			s.logger.Warn().Err(err).Str("productId", req.ProductID).Msg("Stored verification request for unknown product")
			continue
		}
		if product.Status() == latest.Status {
			continue
		}

		verifiedAt := ""
		if latest.Status == catalog.StatusVerified && latest.ReviewedAt != nil {
			verifiedAt = domain.DateOnly(*latest.ReviewedAt)
		}
		product.SetVerification(latest.Status, verifiedAt)
		if err := s.catalog.SaveProduct(ctx, product); err != nil {
			return restored, err
		}
		restored++
	}

	if restored > 0 {
		s.logger.Info().Int("products", restored).Msg("Verification status restored from stored requests")
	}
	return restored, nil
}

// Pending lists the requests waiting for an admin, oldest first.
func (s *VerificationService) Pending(ctx context.Context) ([]domain.Request, error) {
	requests, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]domain.Request, 0)
	for _, req := range requests {
		if req.Status == catalog.StatusPending {
			pending = append(pending, req)
		}
	}
	slices.SortStableFunc(pending, func(a, b domain.Request) int {
		return a.RequestedAt.Compare(b.RequestedAt)
	})
	return pending, nil
}

// apply writes a transition remotely (when configured) and then locally.
func (s *VerificationService) apply(ctx context.Context, c change) error {
	if s.remote != nil {
		if err := s.applyRemote(ctx, c); err != nil {
			s.logger.Error().Err(err).Str("productId", c.product.ID).Msg("Remote verification write failed, local state unchanged")
			return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	}

	requests, err := s.local.Load(ctx)
	if err != nil {
		return err
	}
	if c.drop != nil {
		requests = slices.DeleteFunc(requests, func(r domain.Request) bool { return r.ID == c.drop.ID })
	}
	if c.save != nil {
		i := slices.IndexFunc(requests, func(r domain.Request) bool { return r.ID == c.save.ID })
		if i >= 0 {
			requests[i] = *c.save
		} else {
			requests = append(requests, *c.save)
		}
	}
	if err := s.local.Save(ctx, requests); err != nil {
		return err
	}

	return s.catalog.SaveProduct(ctx, c.product)
}

func (s *VerificationService) applyRemote(ctx context.Context, c change) error {
	t := repository.Transition{
		Save:       c.save,
		ProductID:  c.product.ID,
		Status:     c.product.Status(),
		VerifiedAt: c.product.VerifiedAt,
	}
	if c.drop != nil {
		t.DropID = c.drop.ID
	}
	return s.remote.ApplyTransition(ctx, t)
}

// pendingFor returns the most recent pending request of a product.
func pendingFor(requests []domain.Request, productID string) (domain.Request, bool) {
	var found domain.Request
	ok := false
	for _, req := range requests {
		if req.ProductID != productID || req.Status != catalog.StatusPending {
			continue
		}
		if !ok || req.RequestedAt.After(found.RequestedAt) {
			found, ok = req, true
		}
	}
	return found, ok
}

// latestFor returns the most recent request of a product in any status.
// On equal timestamps the one stored last wins.
func latestFor(requests []domain.Request, productID string) (domain.Request, bool) {
	var found domain.Request
	ok := false
	for _, req := range requests {
		if req.ProductID != productID {
			continue
		}
		if !ok || !req.RequestedAt.Before(found.RequestedAt) {
			found, ok = req, true
		}
	}
	return found, ok
}

// checkOpen rejects a new request while one is pending or the product is verified.
func checkOpen(status catalog.VerificationStatus) error {
	switch status {
	case catalog.StatusVerified:
		return domain.ErrAlreadyVerified
	case catalog.StatusPending:
		return domain.ErrAlreadyPending
	}
	return nil
}
