package repository

import (
	"fmt"
	"sync"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/apperrors"
)

var (
	ErrProductNotFound = fmt.Errorf("%w: product", apperrors.ErrNotFound)
	ErrSellerNotFound  = fmt.Errorf("%w: seller", apperrors.ErrNotFound)
	ErrVoucherNotFound = fmt.Errorf("%w: voucher", apperrors.ErrNotFound)
)

// Data is a full copy of the catalog, as loaded from a seed file or the remote store.
type Data struct {
	Sellers  []domain.Seller  `json:"sellers"`
	Products []domain.Product `json:"products"`
	Ratings  []domain.Rating  `json:"ratings"`
	Vouchers []domain.Voucher `json:"vouchers"`
}

// Snapshot is the local catalog every read is served from.
// Lifecycle: NewSnapshot (load) -> Replace on each remote sync -> reads.
// All accessors return copies; callers never share memory with the snapshot.
type Snapshot struct {
	mu       sync.RWMutex
	sellers  map[string]domain.Seller
	products []domain.Product
	index    map[string]int
	ratings  []domain.Rating
	vouchers map[string]domain.Voucher
}

// NewSnapshot creates a snapshot holding data
func NewSnapshot(data Data) *Snapshot {
	s := &Snapshot{}
	s.Replace(data)
	return s
}

// Replace swaps the whole catalog for data
func (s *Snapshot) Replace(data Data) {
	sellers := make(map[string]domain.Seller, len(data.Sellers))
	for _, seller := range data.Sellers {
		sellers[seller.ID] = seller
	}

	products := make([]domain.Product, 0, len(data.Products))
	index := make(map[string]int, len(data.Products))
	for _, p := range data.Products {
		if i, dup := index[p.ID]; dup {
			products[i] = cloneProduct(p)
			continue
		}
		index[p.ID] = len(products)
		products = append(products, cloneProduct(p))
	}

	vouchers := make(map[string]domain.Voucher, len(data.Vouchers))
	for _, v := range data.Vouchers {
		vouchers[v.Code] = v
	}

	ratings := append([]domain.Rating(nil), data.Ratings...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellers = sellers
	s.products = products
	s.index = index
	s.ratings = ratings
	s.vouchers = vouchers
}

// Product returns the product with id
func (s *Snapshot) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return cloneProduct(s.products[i]), nil
}

// Seller returns the seller with id
func (s *Snapshot) Seller(id string) (domain.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seller, ok := s.sellers[id]
	if !ok {
		return domain.Seller{}, ErrSellerNotFound
	}
	return seller, nil
}

// Products returns every product in catalog order
func (s *Snapshot) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, len(s.products))
	for i, p := range s.products {
		out[i] = cloneProduct(p)
	}
	return out
}

// ProductsBySeller returns the products of sellerID in catalog order
func (s *Snapshot) ProductsBySeller(sellerID string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if p.SellerID == sellerID {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// RatingsBySeller returns the ratings of sellerID, oldest first
func (s *Snapshot) RatingsBySeller(sellerID string) []domain.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Rating
	for _, r := range s.ratings {
		if r.SellerID == sellerID {
			out = append(out, r)
		}
	}
	return out
}

// SaveProduct overwrites an existing product
func (s *Snapshot) SaveProduct(p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	s.products[i] = cloneProduct(p)
	return nil
}

// AddRating appends a rating
func (s *Snapshot) AddRating(r domain.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = append(s.ratings, r)
}

// Voucher returns the voucher with code
func (s *Snapshot) Voucher(code string) (domain.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vouchers[code]
	if !ok {
		return domain.Voucher{}, ErrVoucherNotFound
	}
	return v, nil
}

// ClaimVoucher marks the voucher used if it exists, belongs to sellerID and is
// still unused. The check and the mark happen under one lock.
func (s *Snapshot) ClaimVoucher(code, sellerID string) (domain.Voucher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vouchers[code]
	if !ok || v.SellerID != sellerID || v.Used {
		return domain.Voucher{}, false
	}
	v.Used = true
	s.vouchers[code] = v
	return v, true
}

// ReleaseVoucher undoes a claim whose follow-up write failed
func (s *Snapshot) ReleaseVoucher(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.vouchers[code]; ok {
		v.Used = false
		s.vouchers[code] = v
	}
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}
