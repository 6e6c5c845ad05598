package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores recent quotes. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, symbol string) (*Quote, error)
	Set(ctx context.Context, q *Quote) error
}

// RedisCache keeps quotes in redis under quote:<SYMBOL> with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (*Quote, error) {
	data, err := c.client.Get(ctx, quoteKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *RedisCache) Set(ctx context.Context, q *Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quoteKey(q.Symbol), data, c.ttl).Err()
}

// CachedProvider serves lookups from a cache and falls back to the wrapped
// provider. Cache failures are logged and never fail a lookup. Only
// successful lookups are cached.
type CachedProvider struct {
	next   Provider
	cache  Cache
	logger *zap.Logger
}

var _ Provider = (*CachedProvider)(nil)

func NewCachedProvider(next Provider, cache Cache, logger *zap.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache,
		logger: logger.Named("quote_cache"),
	}
}

func (p *CachedProvider) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)

	cached, err := p.cache.Get(ctx, symbol)
	if err != nil {
		p.logger.Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	q, err := p.next.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, q); err != nil {
		p.logger.Warn("Quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return q, nil
}
