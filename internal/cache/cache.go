// Package cache keeps the serialized product list in Redis between writes.
// Every failure is treated as a miss; the product file stays authoritative.
package cache

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
)

const (
	ProductsKey     = "products:all"
	ProductCacheTTL = 10 * time.Minute
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = ProductCacheTTL
	}
	return &ProductCache{client: client, ttl: ttl}
}

func (c *ProductCache) Products(ctx context.Context) ([]models.Product, bool) {
	data, err := c.client.Get(ctx, ProductsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "⚠️ Product cache read failed", zap.Error(err))
		}
		return nil, false
	}

	products, err := decode(data)
	if err != nil {
		logger.Warn(ctx, "⚠️ Product cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *ProductCache) SetProducts(ctx context.Context, products []models.Product) {
	data, err := encode(products)
	if err != nil {
		logger.Warn(ctx, "⚠️ Product cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, ProductsKey, data, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "⚠️ Product cache write failed", zap.Error(err))
	}
}

func (c *ProductCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, ProductsKey).Err(); err != nil {
		logger.Warn(ctx, "⚠️ Product cache invalidation failed", zap.Error(err))
	}
}

func encode(products []models.Product) ([]byte, error) {
	if products == nil {
		products = []models.Product{}
	}
	return json.Marshal(products)
}

func decode(data []byte) ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
