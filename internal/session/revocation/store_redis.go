// Package revocation keeps the token revocation list consulted by the auth middleware.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Redis key prefix for revoked tokens
const revokedTokenKeyPrefix = "trl:jti:"

// RedisTRL is a Redis-backed revocation list shared by all cockpit instances.
type RedisTRL struct {
	client           redis.Cmdable
	isRevokedSeconds prometheus.Histogram
}

// RedisTRLOption configures a RedisTRL instance.
type RedisTRLOption func(*RedisTRL)

// WithRegisterer registers the lookup latency histogram with reg.
func WithRegisterer(reg prometheus.Registerer) RedisTRLOption {
	return func(t *RedisTRL) {
		t.isRevokedSeconds = promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "cockpit_token_revocation_check_duration_seconds",
			Help:    "Latency of token revocation checks",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		})
	}
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client redis.Cmdable, opts ...RedisTRLOption) *RedisTRL {
	trl := &RedisTRL{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(trl)
		}
	}
	return trl
}

// RevokeToken adds jti to the list until ttl elapses, which should be the token's
// remaining lifetime.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	// The key's existence is what matters.
	return t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti is on the list. Expired entries are gone.
func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if t.isRevokedSeconds != nil {
		start := time.Now()
		defer func() {
			t.isRevokedSeconds.Observe(time.Since(start).Seconds())
		}()
	}

	if jti == "" {
		return false, nil
	}
	err := t.client.Get(ctx, revokedTokenKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
