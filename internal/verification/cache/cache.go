// Package cache provides the Redis-backed verification result cache. Result
// retention is caller policy, not engine logic: the engine stays stateless
// and the HTTP layer decides what to keep and for how long.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"certiva/internal/verification/ports"
)

// DefaultTTL is how long a verification result stays retrievable.
const DefaultTTL = 30 * 24 * time.Hour

// ResultCache stores serialized verification results keyed by certificate
// number. Payloads are opaque bytes; the caller owns the representation.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a result cache. A zero ttl falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{client: client, ttl: ttl}
}

// Save stores the payload under the certificate number with the cache TTL.
func (c *ResultCache) Save(ctx context.Context, certificateNumber string, payload []byte) error {
	if err := c.client.Set(ctx, key(certificateNumber), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache verification result: %w", err)
	}
	return nil
}

// Find returns the cached payload, or ports.ErrNotFound when absent or
// expired.
func (c *ResultCache) Find(ctx context.Context, certificateNumber string) ([]byte, error) {
	payload, err := c.client.Get(ctx, key(certificateNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("read cached result: %w", err)
	}
	return payload, nil
}

func key(certificateNumber string) string {
	return "certiva:verification:" + strings.ToLower(strings.TrimSpace(certificateNumber))
}
