// Package db defines the key-value contract shared by the embedding cache and
// the budget counters.
package db

import (
	"context"
	"time"
)

// Store is a key-value connection that can be health-checked and closed.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVItem is one key/value pair for pipelined writes.
type KVItem struct {
	Key   string
	Value []byte
}

// KVStore holds binary values and integer counters.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key, nil where the key is missing.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	// SetWithTTL stores value; ttl <= 0 stores without expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetMultiWithTTL writes every item in one round trip.
	SetMultiWithTTL(ctx context.Context, items []KVItem, ttl time.Duration) error
	// IncrByWithTTL adds delta to a counter and returns the new value.
	// The ttl is applied only when the counter has no expiry yet.
	IncrByWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}
