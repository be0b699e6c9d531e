package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const window = time.Minute

// ValkeyLimiter enforces a fixed one-minute window shared by every replica.
type ValkeyLimiter struct {
	client valkey.Client
	prefix string
	max    int64
	now    func() time.Time
}

// NewValkeyLimiter constructs a limiter backed by Valkey counters.
func NewValkeyLimiter(client valkey.Client, prefix string, cfg Config) *ValkeyLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	max := int64(cfg.RequestsPerMinute)
	if cfg.Burst > 0 {
		max += int64(cfg.Burst)
	}
	return &ValkeyLimiter{client: client, prefix: prefix, max: max, now: time.Now}
}

// Allow increments the key's counter for the current window.
func (l *ValkeyLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.windowKey(key, l.now())
	count, err := l.client.Do(ctx, l.client.B().Incr().Key(k).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	if count == 1 {
		ttl := int64((2 * window).Seconds())
		if err := l.client.Do(ctx, l.client.B().Expire().Key(k).Seconds(ttl).Build()).Error(); err != nil {
			return false, err
		}
	}
	return count <= l.max, nil
}

func (l *ValkeyLimiter) windowKey(key string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, now.Unix()/int64(window.Seconds()))
}

var _ Limiter = (*ValkeyLimiter)(nil)
