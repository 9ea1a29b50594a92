// Package kv provides the key-value storage primitive backing the search
// cache. Two drivers exist: an in-memory map for ephemeral deployments and a
// sqlite file for deployments that want the cache to survive restarts.
package kv

import (
	"time"
)

// Store is a TTL-aware key-value primitive. Values are opaque byte slices;
// callers own serialization.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	// Keys returns all live keys with the given prefix.
	Keys(prefix string) []string
	Close() error
}
