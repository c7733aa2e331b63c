package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value and reports whether the key was found
	Get(ctx context.Context, key string) (any, bool)

	// Set stores a value. An expiration of 0 uses the configured TTL.
	Set(ctx context.Context, key string, value any, expiration time.Duration)

	// Delete removes a key
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix
	DeleteByPrefix(ctx context.Context, prefix string)

	// Flush removes all items
	Flush(ctx context.Context)
}

// Key prefixes per cached entity
const (
	PrefixBill = "bill:v1:"
)

// GenerateKey joins a prefix and parameters into a cache key
func GenerateKey(prefix string, params ...any) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = fmt.Sprintf("%v", param)
	}
	return prefix + strings.Join(parts, ":")
}
