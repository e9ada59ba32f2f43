package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"hazard-service/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("record already exists")
)

// collection reads and writes one whole-collection blob. Writers go through
// update so a read-change-write cycle never interleaves with another.
type collection[T any] struct {
	mu    sync.Mutex
	store store.Store
	key   string
}

func newCollection[T any](s store.Store, key string) *collection[T] {
	return &collection[T]{store: s, key: key}
}

// load returns the decoded collection; a missing key is an empty collection
func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.key, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.key, err)
	}
	return nil
}

// update applies fn to the current collection and writes the result back
// while holding the collection lock. Returning an error from fn skips the
// write; returning a nil slice with a nil error also skips it.
func (c *collection[T]) update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil || next == nil {
		return err
	}
	return c.save(ctx, next)
}

// replace overwrites the collection under the lock
func (c *collection[T]) replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items)
}
