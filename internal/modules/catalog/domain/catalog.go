// Package domain contains the catalog entities: sellers, their products,
// buyer ratings and the vouchers that unlock a rating.
package domain

import (
	"time"
)

// VerificationStatus is the authoritative verification state of a product.
type VerificationStatus string

const (
	StatusNone     VerificationStatus = "none"
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Valid reports whether s is one of the known states.
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusNone, StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Seller is a marketplace account that lists products and receives orders over WhatsApp.
type Seller struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email,omitempty"`
	City     string    `json:"city,omitempty"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Product is a listing owned by exactly one seller. Price is in whole Iraqi dinars.
type Product struct {
	ID                 string             `json:"id"`
	SellerID           string             `json:"sellerId"`
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	Price              int64              `json:"price"`
	Category           string             `json:"category,omitempty"`
	Images             []string           `json:"images,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	IsVerified         bool               `json:"isVerified"`
	VerifiedAt         string             `json:"verifiedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// SetVerification updates the status projection; IsVerified is derived from it.
// verifiedAt is the calendar date (YYYY-MM-DD) and is kept only while verified.
func (p *Product) SetVerification(status VerificationStatus, verifiedAt string) {
	p.VerificationStatus = status
	p.IsVerified = status == StatusVerified
	if p.IsVerified {
		p.VerifiedAt = verifiedAt
	} else {
		p.VerifiedAt = ""
	}
}

// Status returns the verification status, treating an unset value as none.
func (p *Product) Status() VerificationStatus {
	if p.VerificationStatus == "" {
		return StatusNone
	}
	return p.VerificationStatus
}

// Rating is a buyer review of a seller, unlocked by a single-use voucher.
type Rating struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId"`
	BuyerName   string    `json:"buyerName"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	VoucherCode string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Voucher is handed to a buyer by the seller after a completed order.
type Voucher struct {
	Code     string `json:"code"`
	SellerID string `json:"sellerId"`
	Used     bool   `json:"used"`
}

// RatingSummary aggregates the ratings of one seller.
type RatingSummary struct {
	SellerID     string  `json:"sellerId"`
	Average      float64 `json:"average"`
	Count        int     `json:"count"`
	Distribution [5]int  `json:"distribution"`
}

// Summarize builds the rating summary for sellerID from its ratings.
func Summarize(sellerID string, ratings []Rating) RatingSummary {
	summary := RatingSummary{SellerID: sellerID}
	total := 0
	for _, r := range ratings {
		if r.Score < 1 || r.Score > 5 {
			continue
		}
		summary.Count++
		summary.Distribution[r.Score-1]++
		total += r.Score
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary
}
