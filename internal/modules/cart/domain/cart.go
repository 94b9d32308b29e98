// Package domain contains the cart lines and the seller groups derived from them.
package domain

import (
	"time"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
)

// CartItem is one product line. There is at most one item per product and the
// quantity is always positive.
type CartItem struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	SellerID  string    `json:"sellerId"`
	AddedAt   time.Time `json:"addedAt"`
}

// Line is a cart item resolved against the live catalog.
type Line struct {
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal int64           `json:"lineTotal"`
}

// SellerGroup is derived on every read and never stored.
type SellerGroup struct {
	Seller   catalog.Seller `json:"seller"`
	Lines    []Line         `json:"lines"`
	Subtotal int64          `json:"subtotal"`
}

// ItemCount sums quantities, not lines.
func ItemCount(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Find returns the index of the item for productID, or -1.
func Find(items []CartItem, productID string) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
