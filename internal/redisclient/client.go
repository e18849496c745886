package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-redis/redis/v8"
)

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

// Ping checks the server is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func pincodeKey(code string) string {
	return fmt.Sprintf("pincode:%s", code)
}

func paymentKey(paymentID string) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

// GetPincode reads a cached serviceability record
func (c *Client) GetPincode(ctx context.Context, code string) (*models.Pincode, bool, error) {
	var p models.Pincode
	found, err := c.getJSON(ctx, pincodeKey(code), &p)
	if err != nil || !found {
		return nil, false, err
	}
	return &p, true, nil
}

// SetPincode caches a serviceability record
func (c *Client) SetPincode(ctx context.Context, p *models.Pincode, ttl time.Duration) error {
	return c.setJSON(ctx, pincodeKey(p.Code), p, ttl)
}

// ClaimPayment marks a gateway payment id as used. It returns false when the
// id was already claimed.
func (c *Client) ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, paymentKey(paymentID), time.Now().Unix(), ttl).Result()
}

// ReleasePayment drops a payment claim so the id can be retried
func (c *Client) ReleasePayment(ctx context.Context, paymentID string) error {
	return c.rdb.Del(ctx, paymentKey(paymentID)).Err()
}

// SetIdempotencyKey stores a response under an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.setJSON(ctx, idempotencyKey(key), value, ttl)
}

// GetIdempotencyKey loads a stored response into dst
func (c *Client) GetIdempotencyKey(ctx context.Context, key string, dst interface{}) (bool, error) {
	return c.getJSON(ctx, idempotencyKey(key), dst)
}

func (c *Client) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}
