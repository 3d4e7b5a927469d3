// Package storage implements durable persistence of secret and non-secret
// engine state behind a read-through cache with legacy-store migration.
package storage

import "context"

// Store is the durable key-value contract. Get returns (nil, nil) when the
// key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
