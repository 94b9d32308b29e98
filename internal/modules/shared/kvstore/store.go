// Package kvstore is the persisted key-value store used by the view ledger,
// the cart and the verification snapshot. Values are JSON documents addressed
// by string keys; there is no schema versioning and the last write wins.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned by Get when the key has never been written or was removed.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnavailable indicates the backing store cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Store defines raw key-value access.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value at key into v.
// found is false when the key is absent or the stored value cannot be parsed;
// a corrupt value is treated as absent and gets overwritten by the next SetJSON.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
