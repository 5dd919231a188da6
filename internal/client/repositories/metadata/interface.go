// Package metadata is the key-value table holding the PIN credential,
// reminder times and settings.
package metadata

import (
	"context"
)

// Repository is a small key-value store. Get returns (nil, nil) when the
// key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// List returns pairs whose key starts with prefix; "" lists everything.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
