package marketdata

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/utils"
)

// Quoter fetches the current quote for a symbol.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// RedisQuoteCache stores quotes in redis with a TTL so holdings and
// watchlist reads don't hammer the provider's rate limit.
type RedisQuoteCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisQuoteCache creates a quote cache
func NewRedisQuoteCache(client *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{redis: client, ttl: ttl}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

// Get returns the cached quote, or redis.Nil wrapped when absent
func (c *RedisQuoteCache) Get(ctx context.Context, symbol string) (*Quote, error) {
	raw, err := c.redis.Get(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return nil, err
	}

	var q Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Set stores a quote with the configured TTL
func (c *RedisQuoteCache) Set(ctx context.Context, q *Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, quoteKey(q.Symbol), raw, c.ttl).Err()
}

// CachedQuoter serves quotes cache-first and fills the cache on misses.
type CachedQuoter struct {
	cache *RedisQuoteCache
	api   Quoter
}

// NewCachedQuoter wraps a provider client with the redis cache. cache may
// be nil, in which case every call goes to the provider.
func NewCachedQuoter(cache *RedisQuoteCache, api Quoter) *CachedQuoter {
	return &CachedQuoter{cache: cache, api: api}
}

// Quote returns the cached quote when fresh, otherwise asks the provider
// and caches the answer.
func (q *CachedQuoter) Quote(ctx context.Context, symbol string) (*Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if q.cache != nil {
		cached, err := q.cache.Get(ctx, symbol)
		if err == nil {
			return cached, nil
		}
	}

	quote, err := q.api.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, quote); err != nil {
			slog.Warn("can't cache quote", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		}
	}

	return quote, nil
}

// CurrentPrice returns just the current price, satisfying the trading
// core's price oracle contract.
func (q *CachedQuoter) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	quote, err := q.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.CurrentPrice, nil
}
