package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/repository"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/gaborage/go-bricks/logger"
	"github.com/jonboulle/clockwork"
)

// mockRemote implements repository.RemoteProvider for testing
type mockRemote struct {
	loadAllFunc         func(ctx context.Context) (repository.Data, error)
	insertRatingFunc    func(ctx context.Context, rating *domain.Rating) error
	markVoucherUsedFunc func(ctx context.Context, code string) error
}

func (m *mockRemote) LoadAll(ctx context.Context) (repository.Data, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(ctx)
	}
	return repository.Data{}, errors.New("not implemented")
}

func (m *mockRemote) InsertRating(ctx context.Context, rating *domain.Rating) error {
	if m.insertRatingFunc != nil {
		return m.insertRatingFunc(ctx, rating)
	}
	return nil
}

func (m *mockRemote) MarkVoucherUsed(ctx context.Context, code string) error {
	if m.markVoucherUsedFunc != nil {
		return m.markVoucherUsedFunc(ctx, code)
	}
	return nil
}

func newMockLogger() logger.Logger {
	return logger.New("info", false)
}

func seed() repository.Data {
	return repository.Data{
		Sellers: []domain.Seller{
			{ID: "s1", Name: "Baghdad Dates", Phone: "07701234567"},
			{ID: "s2", Name: "Erbil Honey", Phone: "07509876543"},
		},
		Products: []domain.Product{
			{ID: "p1", SellerID: "s1", Name: "Barhi dates", Price: 1000},
			{ID: "p2", SellerID: "s2", Name: "Mountain honey", Price: 500},
		},
		Ratings: []domain.Rating{
			{ID: "r1", SellerID: "s1", Score: 4},
		},
		Vouchers: []domain.Voucher{
			{Code: "V-1", SellerID: "s1"},
			{Code: "V-2", SellerID: "s2"},
			{Code: "V-USED", SellerID: "s1", Used: true},
		},
	}
}

func newTestService(remote repository.RemoteProvider) (*CatalogService, *repository.Snapshot) {
	snapshot := repository.NewSnapshot(seed())
	return NewService(snapshot, remote, newMockLogger(), clockwork.NewFakeClock()), snapshot
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	p, err := svc.GetProductByID(ctx, "p1")
	if err != nil || p.Price != 1000 {
		t.Errorf("GetProductByID() = %+v, %v", p, err)
	}
	if _, err := svc.GetProductByID(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetProductByID(missing) error = %v, want ErrNotFound", err)
	}

	seller, err := svc.GetSellerByID(ctx, "s2")
	if err != nil || seller.Name != "Erbil Honey" {
		t.Errorf("GetSellerByID() = %+v, %v", seller, err)
	}

	products, err := svc.GetProductsBySeller(ctx, "s1")
	if err != nil || len(products) != 1 {
		t.Errorf("GetProductsBySeller() = %v, %v", products, err)
	}
	if _, err := svc.GetProductsBySeller(ctx, "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetProductsBySeller(ghost) error = %v", err)
	}

	summary, err := svc.GetSellerRatingSummary(ctx, "s1")
	if err != nil || summary.Count != 1 || summary.Average != 4 {
		t.Errorf("GetSellerRatingSummary() = %+v, %v", summary, err)
	}
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		remote       *mockRemote
		wantErr      bool
		wantProducts int
	}{
		{
			name: "successful sync replaces snapshot",
			remote: &mockRemote{
				loadAllFunc: func(ctx context.Context) (repository.Data, error) {
					return repository.Data{Products: []domain.Product{
						{ID: "p7", SellerID: "s7", Name: "Kleicha"},
						{ID: "p8", SellerID: "s7", Name: "Samoon"},
						{ID: "p9", SellerID: "s7", Name: "Tea"},
					}}, nil
				},
			},
			wantProducts: 3,
		},
		{
			name: "remote failure keeps snapshot",
			remote: &mockRemote{
				loadAllFunc: func(ctx context.Context) (repository.Data, error) {
					return repository.Data{}, errors.New("connection refused")
				},
			},
			wantErr:      true,
			wantProducts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, snapshot := newTestService(tt.remote)

			err := svc.Sync(ctx)
			if tt.wantErr && err == nil {
				t.Error("Sync() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Sync() unexpected error = %v", err)
			}
			if got := len(snapshot.Products()); got != tt.wantProducts {
				t.Errorf("products after Sync() = %d, want %d", got, tt.wantProducts)
			}
		})
	}

	t.Run("no remote is a no-op", func(t *testing.T) {
		svc, _ := newTestService(nil)
		if err := svc.Sync(ctx); err != nil {
			t.Errorf("Sync() unexpected error = %v", err)
		}
		if svc.RemoteEnabled() {
			t.Error("RemoteEnabled() = true without remote")
		}
	})
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ReviewInput
		remote  *mockRemote
		wantErr error
	}{
		{
			name:  "successful review",
			input: ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "Ali", Score: 5, Comment: "fresh"},
		},
		{
			name:    "score out of range",
			input:   ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "Ali", Score: 6},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "blank buyer name",
			input:   ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "  ", Score: 3},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "unknown seller",
			input:   ReviewInput{SellerID: "ghost", VoucherCode: "V-1", BuyerName: "Ali", Score: 3},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:    "voucher of another seller",
			input:   ReviewInput{SellerID: "s1", VoucherCode: "V-2", BuyerName: "Ali", Score: 3},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "used voucher",
			input:   ReviewInput{SellerID: "s1", VoucherCode: "V-USED", BuyerName: "Ali", Score: 3},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "unknown voucher",
			input:   ReviewInput{SellerID: "s1", VoucherCode: "V-404", BuyerName: "Ali", Score: 3},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:  "remote write failure",
			input: ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "Ali", Score: 5},
			remote: &mockRemote{
				insertRatingFunc: func(ctx context.Context, rating *domain.Rating) error {
					return errors.New("timeout")
				},
			},
			wantErr: ErrRemoteWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var remote repository.RemoteProvider
			if tt.remote != nil {
				remote = tt.remote
			}
			svc, snapshot := newTestService(remote)

			rating, err := svc.SubmitReview(ctx, tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SubmitReview() error = %v, want %v", err, tt.wantErr)
				}
				if got := len(snapshot.RatingsBySeller("s1")); got != 1 {
					t.Errorf("ratings after failed SubmitReview() = %d, want 1", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("SubmitReview() unexpected error = %v", err)
			}
			if rating.ID == "" || rating.Score != tt.input.Score {
				t.Errorf("SubmitReview() rating = %+v", rating)
			}

			v, _ := snapshot.Voucher(tt.input.VoucherCode)
			if !v.Used {
				t.Error("voucher not marked used")
			}

			if _, err := svc.SubmitReview(ctx, tt.input); !errors.Is(err, ErrVoucherRejected) {
				t.Errorf("second SubmitReview() with the same voucher error = %v, want %v", err, ErrVoucherRejected)
			}

			summary, _ := svc.GetSellerRatingSummary(ctx, "s1")
			if summary.Count != 2 {
				t.Errorf("summary count = %d, want 2", summary.Count)
			}
		})
	}
}

func TestSubmitReviewStripsMarkup(t *testing.T) {
	svc, _ := newTestService(nil)

	rating, err := svc.SubmitReview(context.Background(), ReviewInput{
		SellerID:    "s1",
		VoucherCode: "V-1",
		BuyerName:   "<b>Ali</b>",
		Score:       4,
		Comment:     `<a href="javascript:alert(1)">fresh</a> dates`,
	})
	if err != nil {
		t.Fatalf("SubmitReview() unexpected error = %v", err)
	}
	if rating.BuyerName != "Ali" || rating.Comment != "fresh dates" {
		t.Errorf("SubmitReview() = %q / %q, want markup stripped", rating.BuyerName, rating.Comment)
	}
}

func TestSubmitReviewConcurrentVoucher(t *testing.T) {
	ctx := context.Background()
	svc, snapshot := newTestService(nil)

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitReview(ctx, ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "Ali", Score: 5})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ErrVoucherRejected) {
				t.Errorf("SubmitReview() error = %v, want nil or %v", err, ErrVoucherRejected)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted reviews = %d, want 1", accepted)
	}
	if got := len(snapshot.RatingsBySeller("s1")); got != 2 {
		t.Errorf("ratings = %d, want 2", got)
	}
}

func TestSubmitReviewRemoteFailureReleasesVoucher(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		remote   *mockRemote
		wantErr  error
		wantUsed bool
	}{
		{
			name: "remote store unavailable",
			remote: &mockRemote{
				markVoucherUsedFunc: func(ctx context.Context, code string) error {
					return errors.New("connection refused")
				},
			},
			wantErr:  ErrRemoteWrite,
			wantUsed: false,
		},
		{
			name: "voucher already consumed remotely",
			remote: &mockRemote{
				markVoucherUsedFunc: func(ctx context.Context, code string) error {
					return repository.ErrVoucherNotFound
				},
			},
			wantErr:  ErrVoucherRejected,
			wantUsed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, snapshot := newTestService(tt.remote)

			_, err := svc.SubmitReview(ctx, ReviewInput{SellerID: "s1", VoucherCode: "V-1", BuyerName: "Ali", Score: 5})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SubmitReview() error = %v, want %v", err, tt.wantErr)
			}
			if v, _ := snapshot.Voucher("V-1"); v.Used != tt.wantUsed {
				t.Errorf("voucher used = %v, want %v", v.Used, tt.wantUsed)
			}
		})
	}
}
