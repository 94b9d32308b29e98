package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/secrets"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
	"github.com/gaborage/go-bricks/config"
	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/server"
	"github.com/labstack/echo/v4"
)

// mockService implements VerificationServiceInterface for testing
type mockService struct {
	requestFunc func(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error)
	reviewErr   error
	reviewedBy  string
	reason      string
	pending     []domain.Request
}

func (m *mockService) RequestVerification(ctx context.Context, productID, sellerID string, documents []string) (*domain.Request, error) {
	if m.requestFunc != nil {
		return m.requestFunc(ctx, productID, sellerID, documents)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Verify(_ context.Context, productID, adminID string) (*domain.Request, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	m.reviewedBy = adminID
	return &domain.Request{ProductID: productID, Status: catalog.StatusVerified, ReviewedBy: adminID}, nil
}

func (m *mockService) Reject(_ context.Context, productID, adminID, reason string) (*domain.Request, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	m.reviewedBy = adminID
	m.reason = reason
	return &domain.Request{ProductID: productID, Status: catalog.StatusRejected, RejectionReason: reason}, nil
}

func (m *mockService) CancelRequest(_ context.Context, _, sellerID string) error {
	if sellerID != "s1" {
		return domain.ErrNotOwner
	}
	return nil
}

func (m *mockService) ReRequest(_ context.Context, _, _ string, _ []string) (*domain.Request, error) {
	return nil, domain.ErrNotRejected
}

func (m *mockService) History(_ context.Context, productID string) ([]domain.Request, error) {
	if productID == "missing" {
		return nil, apperrors.ErrNotFound
	}
	return []domain.Request{{ID: "r1", ProductID: productID}}, nil
}

func (m *mockService) Pending(_ context.Context) ([]domain.Request, error) {
	return m.pending, nil
}

func newMockLogger() logger.Logger {
	return logger.New("info", false)
}

func newHandlerContext(user string) server.HandlerContext {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	return server.HandlerContext{
		Echo: e.NewContext(req, rec),
		Config: &config.Config{
			App: config.AppConfig{Name: "test", Version: "1.0.0", Env: "test", Debug: true},
		},
	}
}

func newHandler(svc *mockService) *VerificationHandler {
	return NewVerificationHandler(svc, secrets.NewStaticAdminStore([]string{"admin@example.com"}), newMockLogger())
}

func TestRequestVerification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "already pending", err: domain.ErrAlreadyPending, wantStatus: http.StatusConflict},
		{name: "not owner", err: domain.ErrNotOwner, wantStatus: http.StatusForbidden},
		{name: "unknown product", err: apperrors.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDocs []string
			svc := &mockService{
				requestFunc: func(_ context.Context, productID, sellerID string, documents []string) (*domain.Request, error) {
					gotDocs = documents
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Request{ID: "r1", ProductID: productID, SellerID: sellerID, Status: catalog.StatusPending}, nil
				},
			}

			req := SellerActionRequest{ProductID: "p1", SellerID: "s1", Documents: []string{"license.pdf"}}
			_, apiErr := newHandler(svc).RequestVerification(req, newHandlerContext(""))

			if tt.err == nil {
				if apiErr != nil {
					t.Fatalf("RequestVerification() unexpected error = %v", apiErr)
				}
				if len(gotDocs) != 1 || gotDocs[0] != "license.pdf" {
					t.Errorf("documents = %v", gotDocs)
				}
				return
			}
			if apiErr == nil || apiErr.HTTPStatus() != tt.wantStatus {
				t.Errorf("RequestVerification() error = %v, want status %d", apiErr, tt.wantStatus)
			}
		})
	}
}

func TestVerifyRequiresAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		wantStatus int
	}{
		{name: "admin", user: "Admin@Example.com", wantStatus: http.StatusOK},
		{name: "not on allow-list", user: "seller@example.com", wantStatus: http.StatusForbidden},
		{name: "anonymous", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			resp, apiErr := newHandler(svc).Verify(VerifyRequest{ProductID: "p1"}, newHandlerContext(tt.user))

			if tt.wantStatus != http.StatusOK {
				if apiErr == nil || apiErr.HTTPStatus() != tt.wantStatus {
					t.Errorf("Verify() error = %v, want status %d", apiErr, tt.wantStatus)
				}
				if svc.reviewedBy != "" {
					t.Error("service called for non-admin")
				}
				return
			}
			if apiErr != nil {
				t.Fatalf("Verify() unexpected error = %v", apiErr)
			}
			if resp.Status != catalog.StatusVerified || svc.reviewedBy != tt.user {
				t.Errorf("Verify() = %+v, reviewedBy %q", resp, svc.reviewedBy)
			}
		})
	}
}

func TestVerifyNotPending(t *testing.T) {
	svc := &mockService{reviewErr: domain.ErrNotPending}

	_, apiErr := newHandler(svc).Verify(VerifyRequest{ProductID: "p1"}, newHandlerContext("admin@example.com"))
	if apiErr == nil || apiErr.HTTPStatus() != http.StatusConflict {
		t.Errorf("Verify() error = %v, want 409", apiErr)
	}
}

func TestReject(t *testing.T) {
	svc := &mockService{}
	h := newHandler(svc)

	if _, apiErr := h.Reject(RejectRequest{ProductID: "p1"}, newHandlerContext("admin@example.com")); apiErr == nil || apiErr.ErrorCode() != "BAD_REQUEST" {
		t.Errorf("Reject() without reason error = %v, want BAD_REQUEST", apiErr)
	}

	resp, apiErr := h.Reject(RejectRequest{ProductID: "p1", Reason: "blurry photos"}, newHandlerContext("admin@example.com"))
	if apiErr != nil {
		t.Fatalf("Reject() unexpected error = %v", apiErr)
	}
	if resp.Status != catalog.StatusRejected || svc.reason != "blurry photos" {
		t.Errorf("Reject() = %+v", resp)
	}
}

func TestSellerActions(t *testing.T) {
	h := newHandler(&mockService{})

	if _, apiErr := h.CancelRequest(SellerActionRequest{ProductID: "p1", SellerID: "s1"}, newHandlerContext("")); apiErr != nil {
		t.Errorf("CancelRequest() unexpected error = %v", apiErr)
	}
	if _, apiErr := h.CancelRequest(SellerActionRequest{ProductID: "p1", SellerID: "s2"}, newHandlerContext("")); apiErr == nil || apiErr.HTTPStatus() != http.StatusForbidden {
		t.Errorf("CancelRequest() by non-owner error = %v, want 403", apiErr)
	}
	if _, apiErr := h.ReRequest(SellerActionRequest{ProductID: "p1", SellerID: "s1"}, newHandlerContext("")); apiErr == nil || apiErr.HTTPStatus() != http.StatusConflict {
		t.Errorf("ReRequest() error = %v, want 409", apiErr)
	}
}

func TestPendingAndHistory(t *testing.T) {
	svc := &mockService{pending: []domain.Request{{ID: "r1"}, {ID: "r2"}}}
	h := newHandler(svc)

	if _, apiErr := h.Pending(PendingRequest{}, newHandlerContext("")); apiErr == nil || apiErr.HTTPStatus() != http.StatusForbidden {
		t.Errorf("Pending() anonymous error = %v, want 403", apiErr)
	}

	resp, apiErr := h.Pending(PendingRequest{}, newHandlerContext("admin@example.com"))
	if apiErr != nil || len(resp.Requests) != 2 {
		t.Errorf("Pending() = %+v, %v", resp, apiErr)
	}

	history, apiErr := h.History(HistoryRequest{ProductID: "p1"}, newHandlerContext(""))
	if apiErr != nil || len(history.Requests) != 1 {
		t.Errorf("History() = %+v, %v", history, apiErr)
	}

	if _, apiErr := h.History(HistoryRequest{ProductID: "missing"}, newHandlerContext("")); apiErr == nil || apiErr.ErrorCode() != "NOT_FOUND" {
		t.Errorf("History() unknown product error = %v, want NOT_FOUND", apiErr)
	}
}
