package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

var (
	ErrInvalidRow = fmt.Errorf("invalid remote row")
)

// The row types below are the single schema used to read the remote store.
// Required columns are checked by Validate; optional columns are selected with
// COALESCE so they always scan into plain values.

// SellerRow is a row of the sellers table
type SellerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	City      string    `db:"city"`
	Avatar    string    `db:"avatar"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *SellerRow) Validate() error {
	if r.ID == "" || r.Name == "" {
		return fmt.Errorf("%w: seller requires id and name", ErrInvalidRow)
	}
	return nil
}

func (r *SellerRow) ToSeller() Seller {
	return Seller{
		ID:       r.ID,
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		City:     r.City,
		Avatar:   r.Avatar,
		JoinedAt: r.CreatedAt,
	}
}

// ProductRow is a row of the products table
type ProductRow struct {
	ID                 string    `db:"id"`
	SellerID           string    `db:"seller_id"`
	Name               string    `db:"name"`
	Description        string    `db:"description"`
	Price              int64     `db:"price"`
	Category           string    `db:"category"`
	Images             string    `db:"images"`
	VerificationStatus string    `db:"verification_status"`
	VerifiedAt         string    `db:"verified_at"`
	CreatedAt          time.Time `db:"created_at"`
}

func (r *ProductRow) TableName() string {
	return "products"
}

func (r *ProductRow) Validate() error {
	if r.ID == "" || r.SellerID == "" || r.Name == "" {
		return fmt.Errorf("%w: product requires id, seller_id and name", ErrInvalidRow)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: product %s has negative price", ErrInvalidRow, r.ID)
	}
	if r.VerificationStatus != "" && !VerificationStatus(r.VerificationStatus).Valid() {
		return fmt.Errorf("%w: product %s has unknown verification status %q", ErrInvalidRow, r.ID, r.VerificationStatus)
	}
	return nil
}

func (r *ProductRow) ToProduct() Product {
	p := Product{
		ID:          r.ID,
		SellerID:    r.SellerID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		CreatedAt:   r.CreatedAt,
	}
	if r.Images != "" {
		// a malformed image list is dropped rather than failing the whole row
		_ = json.Unmarshal([]byte(r.Images), &p.Images)
	}

	status := VerificationStatus(r.VerificationStatus)
	if status == "" {
		status = StatusNone
	}
	p.SetVerification(status, r.VerifiedAt)
	return p
}

// RatingRow is a row of the ratings table
type RatingRow struct {
	ID          string    `db:"id"`
	SellerID    string    `db:"seller_id"`
	BuyerName   string    `db:"buyer_name"`
	Score       int       `db:"score"`
	Comment     string    `db:"comment"`
	VoucherCode string    `db:"voucher_code"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *RatingRow) Validate() error {
	if r.ID == "" || r.SellerID == "" {
		return fmt.Errorf("%w: rating requires id and seller_id", ErrInvalidRow)
	}
	if r.Score < 1 || r.Score > 5 {
		return fmt.Errorf("%w: rating %s score %d out of range", ErrInvalidRow, r.ID, r.Score)
	}
	return nil
}

func (r *RatingRow) ToRating() Rating {
	return Rating{
		ID:          r.ID,
		SellerID:    r.SellerID,
		BuyerName:   r.BuyerName,
		Score:       r.Score,
		Comment:     r.Comment,
		VoucherCode: r.VoucherCode,
		CreatedAt:   r.CreatedAt,
	}
}

// VoucherRow is a row of the vouchers table
type VoucherRow struct {
	Code     string `db:"code"`
	SellerID string `db:"seller_id"`
	Used     bool   `db:"used"`
}

func (r *VoucherRow) Validate() error {
	if r.Code == "" || r.SellerID == "" {
		return fmt.Errorf("%w: voucher requires code and seller_id", ErrInvalidRow)
	}
	return nil
}

func (r *VoucherRow) ToVoucher() Voucher {
	return Voucher{Code: r.Code, SellerID: r.SellerID, Used: r.Used}
}
