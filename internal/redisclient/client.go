package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"commerce-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const productCacheTTL = 10 * time.Minute

// Client is a read-through cache for the product catalog. Products are
// immutable in this service, so cached copies never go stale in a way that
// matters; everything stateful (inventory, orders, payments) stays in
// Postgres under row locks and is never cached.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProduct returns a cached product, or (nil, nil) on a miss
func (c *Client) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(productID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to decode cached product %d: %w", productID, err)
	}
	return &product, nil
}

// SetProduct caches a product with TTL
func (c *Client) SetProduct(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.ID), data, productCacheTTL).Err()
}

func productKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
