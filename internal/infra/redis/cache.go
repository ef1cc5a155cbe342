package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/pkg/logger"
)

const (
	// DefaultTTL is the default TTL for cached prices
	DefaultTTL = 60 * time.Second

	// KeyPrefix is the prefix for price cache keys
	KeyPrefix = "price:"
)

// Cache represents a Redis-backed price cache keyed by ticker
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCache creates a new price cache with the default TTL
func NewCache(client *redis.Client, log *logger.Logger) *Cache {
	return NewCacheWithTTL(client, DefaultTTL, log)
}

// NewCacheWithTTL creates a new price cache with custom TTL
func NewCacheWithTTL(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "price_cache"),
	}
}

// cachedPrice is the stored representation of one quote
type cachedPrice struct {
	Ticker    string    `json:"ticker"`
	Price     string    `json:"price"` // decimal serialized as string
	UpdatedAt time.Time `json:"updated_at"`
}

// Get retrieves a cached price for a ticker. A miss is not an error.
func (c *Cache) Get(ctx context.Context, ticker string) (decimal.Decimal, bool, error) {
	key := KeyPrefix + ticker

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "ticker", ticker)
		return decimal.Zero, false, nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "get", "ticker", ticker, "error", err)
		return decimal.Zero, false, fmt.Errorf("failed to get cached price: %w", err)
	}

	var cached cachedPrice
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to unmarshal cached price: %w", err)
	}

	price, err := decimal.NewFromString(cached.Price)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse cached price: %w", err)
	}

	c.logger.Debug("cache hit", "ticker", ticker)
	return price, true, nil
}

// Set stores a price in the cache
func (c *Cache) Set(ctx context.Context, ticker string, price decimal.Decimal) error {
	key := KeyPrefix + ticker

	cached := cachedPrice{
		Ticker:    ticker,
		Price:     price.String(),
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal price: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache error", "operation", "set", "ticker", ticker, "error", err)
		return fmt.Errorf("failed to set cached price: %w", err)
	}

	return nil
}

// GetMultiple retrieves cached prices for several tickers in one round trip.
// Missing or unparseable entries are simply absent from the result.
func (c *Cache) GetMultiple(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	if len(tickers) == 0 {
		return make(map[string]decimal.Decimal), nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(tickers))
	for i, ticker := range tickers {
		cmds[i] = pipe.Get(ctx, KeyPrefix+ticker)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read cached prices: %w", err)
	}

	result := make(map[string]decimal.Decimal)
	for i, cmd := range cmds {
		val, err := cmd.Result()
		if err != nil {
			continue
		}

		var cached cachedPrice
		if err := json.Unmarshal([]byte(val), &cached); err != nil {
			continue
		}

		price, err := decimal.NewFromString(cached.Price)
		if err != nil {
			continue
		}

		result[tickers[i]] = price
	}

	return result, nil
}

// Delete removes a cached price
func (c *Cache) Delete(ctx context.Context, ticker string) error {
	return c.client.Del(ctx, KeyPrefix+ticker).Err()
}
