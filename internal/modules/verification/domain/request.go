// Package domain contains the verification request entity and the verification
// ranking used when listing products.
package domain

import (
	"fmt"
	"time"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
)

var (
	ErrAlreadyVerified = fmt.Errorf("%w: product is already verified", apperrors.ErrInvalidState)
	ErrAlreadyPending  = fmt.Errorf("%w: verification is already pending", apperrors.ErrInvalidState)
	ErrNotPending      = fmt.Errorf("%w: product has no pending verification", apperrors.ErrInvalidState)
	ErrNotRejected     = fmt.Errorf("%w: only rejected products can be re-requested", apperrors.ErrInvalidState)
	ErrNotOwner        = fmt.Errorf("%w: product belongs to another seller", apperrors.ErrForbidden)
	ErrReasonRequired  = fmt.Errorf("%w: rejection reason is required", apperrors.ErrValidation)
)

// Request is a seller's application to have a product verified by an admin.
type Request struct {
	ID              string                     `json:"id"`
	ProductID       string                     `json:"productId"`
	SellerID        string                     `json:"sellerId"`
	Status          catalog.VerificationStatus `json:"status"`
	RequestedAt     time.Time                  `json:"requestedAt"`
	ReviewedAt      *time.Time                 `json:"reviewedAt,omitempty"`
	ReviewedBy      string                     `json:"reviewedBy,omitempty"`
	RejectionReason string                     `json:"rejectionReason,omitempty"`
	Documents       []string                   `json:"documents,omitempty"`
}

// Review marks the request reviewed by adminID with the given outcome.
func (r *Request) Review(status catalog.VerificationStatus, adminID, reason string, at time.Time) {
	r.Status = status
	r.ReviewedBy = adminID
	r.RejectionReason = reason
	reviewed := at
	r.ReviewedAt = &reviewed
}

// DateOnly formats t as the calendar date stored in Product.VerifiedAt.
func DateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}
