// Package db defines the key-value store boundary behind the verdict
// cache, keeping the concrete Redis client out of the scoring pipeline.
package db

import (
	"context"
	"time"
)

// Store is the key-value facade the verdict cache consumes.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
