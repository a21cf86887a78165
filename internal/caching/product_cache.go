package caching

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"orderhub/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const productKeyPrefix = "orderhub:product:"

type ProductCache interface {
	// GetProduct returns nil, nil on a cache miss.
	GetProduct(ctx context.Context, sku string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, sku string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache accepts a bare host:port or a redis:// URL.
func NewRedisProductCache(addr, password string, db int, ttl time.Duration) ProductCache {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if password != "" {
				opts.Password = password
			}
			return &redisProductCache{client: redis.NewClient(opts), ttl: ttl}
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisProductCache{client: client, ttl: ttl}
}

func productKey(sku string) string {
	return productKeyPrefix + sku
}

func (r *redisProductCache) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	data, err := r.client.Get(ctx, productKey(sku)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "cache get %s", sku)
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, errors.Wrapf(err, "decode cached product %s", sku)
	}
	return &product, nil
}

func (r *redisProductCache) SetProduct(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return errors.Wrap(err, "encode product")
	}
	return errors.Wrapf(r.client.Set(ctx, productKey(product.Sku), data, r.ttl).Err(), "cache set %s", product.Sku)
}

func (r *redisProductCache) DeleteProduct(ctx context.Context, sku string) error {
	return errors.Wrapf(r.client.Del(ctx, productKey(sku)).Err(), "cache delete %s", sku)
}

func (r *redisProductCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisProductCache) Close() error {
	return r.client.Close()
}
