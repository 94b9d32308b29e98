// Package repository persists verification requests locally in the key-value
// store and, when configured, in the remote database.
package repository

import (
	"context"
	"fmt"

	"github.com/fadl200/suaqiraq-sub000/internal/modules/shared/kvstore"
	"github.com/fadl200/suaqiraq-sub000/internal/modules/verification/domain"
)

// RequestsKey holds the local snapshot of all verification requests.
const RequestsKey = "verification_requests"

// KVRepository keeps every verification request as one JSON list.
type KVRepository struct {
	store kvstore.Store
}

func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// Load returns all stored requests. An absent or unreadable list is empty.
func (r *KVRepository) Load(ctx context.Context) ([]domain.Request, error) {
	var requests []domain.Request
	found, err := kvstore.GetJSON(ctx, r.store, RequestsKey, &requests)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification requests: %w", err)
	}
	if !found {
		return nil, nil
	}

	valid := requests[:0]
	for _, req := range requests {
		if req.ID == "" || req.ProductID == "" || !req.Status.Valid() {
			continue
		}
		valid = append(valid, req)
	}
	return valid, nil
}

// Save replaces the stored list.
func (r *KVRepository) Save(ctx context.Context, requests []domain.Request) error {
	if err := kvstore.SetJSON(ctx, r.store, RequestsKey, requests); err != nil {
		return fmt.Errorf("failed to save verification requests: %w", err)
	}
	return nil
}
