package domain

import (
	"slices"

	catalog "github.com/fadl200/suaqiraq-sub000/internal/modules/catalog/domain"
)

func tier(p catalog.Product) int {
	switch p.Status() {
	case catalog.StatusVerified:
		return 0
	case catalog.StatusPending:
		return 1
	default:
		return 2
	}
}

// SortByVerification returns the products ordered verified, then pending, then
// everything else. Order inside a tier is preserved and no other signal
// (ratings, views) takes part in the comparison.
func SortByVerification(products []catalog.Product) []catalog.Product {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b catalog.Product) int {
		return tier(a) - tier(b)
	})
	return sorted
}
