// Package store provides the session-scoped key-value persistence used to
// keep extraction state across page loads of one browser tab or CLI session.
package store

import (
	"context"
	"time"
)

// KV is a string key-value store bound to one session.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Backend hands out session-bound KVs over a shared storage medium.
type Backend interface {
	Session(id string) KV
	Migrate(ctx context.Context) error
	// PruneSessions removes every session whose newest entry is older than maxAge.
	PruneSessions(ctx context.Context, maxAge time.Duration) (int, error)
	Close() error
}
