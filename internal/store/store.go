// Package store holds the record store: whole-collection JSON blobs kept
// under fixed string keys.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when no blob exists under a key
var ErrKeyNotFound = errors.New("key not found")

// Collection keys
const (
	KeyHazards       = "hazards"
	KeyGroups        = "groups"
	KeyUsers         = "users"
	KeyNotifications = "notifications"
)

// Store is a synchronous key/value store of JSON blobs.
// Writers replace the whole blob; concurrent writers are last-write-wins.
type Store interface {
	// Get returns the blob stored under key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the blob stored under key
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// Keys lists every stored key
	Keys(ctx context.Context) ([]string, error)
}

// Copy pushes every blob from src into dst
func Copy(ctx context.Context, src, dst Store) error {
	keys, err := src.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	for _, key := range keys {
		value, err := src.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read key %s: %w", key, err)
		}
		if err := dst.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to set key %s in destination: %w", key, err)
		}
	}
	return nil
}
