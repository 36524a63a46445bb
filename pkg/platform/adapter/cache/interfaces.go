// Package cache defines the key/value cache used to memoize read-heavy lookups.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores JSON-encoded values with an expiry.
type Cache interface {
	// Get decodes the value stored at key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	// Set stores value at key. A zero ttl keeps the key without expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern and returns how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)
	// Ping checks that the cache answers.
	Ping(ctx context.Context) error
	// Close releases the client.
	Close() error
}

// GenerateKey derives a stable key from a prefix and a parameter set:
// prefix + ":" + md5 of the parameters encoded as JSON with sorted keys.
func GenerateKey(prefix string, params map[string]interface{}) string {
	// encoding/json sorts map keys, so equal parameter sets hash identically.
	encoded, err := json.Marshal(params)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", params))
	}
	sum := md5.Sum(encoded)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
