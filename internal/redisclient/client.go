package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pos-order-api/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb        *redis.Client
	productTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, productTTL time.Duration) (*Client, error) {
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

	return &Client{rdb: rdb, productTTL: productTTL}, nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client, productTTL time.Duration) *Client {
	return &Client{rdb: rdb, productTTL: productTTL}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func productKey(name string) string {
	return fmt.Sprintf("product:name:%s", name)
}

// BusChannel is the pub/sub channel of a partner's live session
func BusChannel(partnerID int64) string {
	return fmt.Sprintf("bus:partner:%d", partnerID)
}

// GetProductID looks up a cached product id by full product name
func (c *Client) GetProductID(ctx context.Context, name string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, productKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached product id %q: %w", val, err)
	}
	return id, true, nil
}

// SetProductID caches a product id by full product name
func (c *Client) SetProductID(ctx context.Context, name string, id int64) error {
	return c.rdb.Set(ctx, productKey(name), id, c.productTTL).Err()
}

// ForgetProduct drops a cached product id
func (c *Client) ForgetProduct(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, productKey(name)).Err()
}

// SendOne publishes a bus message to one partner's channel
func (c *Client) SendOne(ctx context.Context, partnerID int64, kind string, payload models.BusNotification) error {
	body, err := json.Marshal(models.BusMessage{Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}

	if err := c.rdb.Publish(ctx, BusChannel(partnerID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish bus message: %w", err)
	}
	return nil
}
