package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
	"go.uber.org/zap"
)

// CachedCatalog keeps product details in redis in front of another lookup. Redis
// errors fall through to the wrapped lookup.
type CachedCatalog struct {
	next   calc.CatalogLookup
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedCatalog(next calc.CatalogLookup, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalog{next: next, client: client, ttl: ttl, logger: logger.Named("catalog_cache")}
}

func productKey(id uint) string {
	return fmt.Sprintf("einvoice:product:%d", id)
}

func (c *CachedCatalog) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	key := productKey(id)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Product
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

// Invalidate drops the cached copy of a product after it changed.
func (c *CachedCatalog) Invalidate(ctx context.Context, id uint) error {
	return c.client.Del(ctx, productKey(id)).Err()
}
