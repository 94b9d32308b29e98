// Package repository persists carts in the key-value store.
package repository

import (
	"context"
	"fmt"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/cart/domain"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
)

const keyPrefix = "cart:"

// Repository defines the interface for cart storage.
type Repository interface {
	Load(ctx context.Context, cartID string) ([]domain.CartItem, error)
	Save(ctx context.Context, cartID string, items []domain.CartItem) error
	Delete(ctx context.Context, cartID string) error
}

// KVRepository stores each cart as one JSON list under cart:<cartID>.
type KVRepository struct {
	store kvstore.Store
}

func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

func Key(cartID string) string {
	return keyPrefix + cartID
}

// Load returns the cart lines. An absent or corrupt cart is empty.
func (r *KVRepository) Load(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	found, err := kvstore.GetJSON(ctx, r.store, Key(cartID), &items)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if !found {
		return nil, nil
	}

	// Drop lines that could only come from a hand-edited or corrupt value.
	valid := items[:0]
	for _, it := range items {
		if it.ProductID != "" && it.Quantity > 0 && domain.Find(valid, it.ProductID) < 0 {
			valid = append(valid, it)
		}
	}
	return valid, nil
}

func (r *KVRepository) Save(ctx context.Context, cartID string, items []domain.CartItem) error {
	if len(items) == 0 {
		return r.Delete(ctx, cartID)
	}
	if err := kvstore.SetJSON(ctx, r.store, Key(cartID), items); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, cartID string) error {
	if err := r.store.Remove(ctx, Key(cartID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
