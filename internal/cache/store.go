package cache

import (
	"context"
	"time"
)

// Store is the cache abstraction consumed by the service layer. All methods
// are best-effort: a backend failure surfaces as a miss on reads and as a
// silent no-op on writes, never as an error the caller must handle. The
// database stays the source of truth, so a lost cache write only costs a
// redundant query later.
type Store interface {
	// Get returns the cached value for key, or ok=false when the key is
	// absent, expired, or the backend is unavailable.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key with the given expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes a single key.
	Delete(ctx context.Context, key string)

	// DeletePattern removes every key matching a glob pattern, in bounded
	// sub-batches so a large key family cannot block the backend.
	DeletePattern(ctx context.Context, pattern string)

	// Reset clears the whole cache namespace.
	Reset(ctx context.Context)
}
