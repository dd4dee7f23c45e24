package vouchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

const (
	missMarker = "-"

	// DefaultCacheTTL replaces a non-positive TTL: entries must expire so
	// voucher status and usage changes are eventually seen.
	DefaultCacheTTL = 10 * time.Minute
)

// CachedStore is a cache-aside wrapper around a Store. Unknown codes are
// cached too so repeated lookups of a bad code stay off the backing table.
// Redis failures degrade to reading the backing store.
type CachedStore struct {
	next    Store
	client  *redis.Client
	baseTTL time.Duration
	log     *slog.Logger
}

func NewCachedStore(next Store, client *redis.Client, baseTTL time.Duration, log *slog.Logger) *CachedStore {
	if log == nil {
		log = slog.Default()
	}
	if baseTTL <= 0 {
		log.Warn("non-positive voucher cache ttl, using default",
			slog.Duration("ttl", baseTTL),
			slog.Duration("default", DefaultCacheTTL),
		)
		baseTTL = DefaultCacheTTL
	}
	return &CachedStore{next: next, client: client, baseTTL: baseTTL, log: log}
}

func (c *CachedStore) GetByCode(ctx context.Context, code string) (*pricing.Voucher, error) {
	key := cacheKey(code)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == missMarker {
			return nil, ErrNotFound
		}
		var v pricing.Voucher
		if err := json.Unmarshal(data, &v); err == nil {
			return &v, nil
		}
		c.log.WarnContext(ctx, "dropping corrupt voucher cache entry", slog.String("key", key))
		c.client.Del(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		c.log.WarnContext(ctx, "voucher cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	v, err := c.next.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		c.set(ctx, key, missMarker)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal voucher failed: %w", err)
	}
	c.set(ctx, key, string(raw))
	return v, nil
}

// Invalidate drops the cached entry for code.
func (c *CachedStore) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, cacheKey(code)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *CachedStore) set(ctx context.Context, key, value string) {
	jitter := time.Duration(rand.Int63n(int64(c.baseTTL)/10 + 1))
	if err := c.client.Set(ctx, key, value, c.baseTTL+jitter).Err(); err != nil {
		c.log.WarnContext(ctx, "voucher cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func cacheKey(code string) string {
	return fmt.Sprintf("voucher:%s", NormalizeCode(code))
}
