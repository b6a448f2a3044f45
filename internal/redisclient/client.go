package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	productionModelKey  = "model:production"
	referenceScoresKey  = "drift:reference_scores"
	idempotencyKeySpace = "idempotency:%s"
	lockKeySpace        = "lock:%s"
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

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

type cachedModel struct {
	Version int    `json:"version"`
	Payload []byte `json:"payload"`
}

// CacheProductionModel stores the current production model version and its
// serialized payload so scoring skips the registry on the hot path.
func (c *Client) CacheProductionModel(ctx context.Context, version int, payload []byte, ttl time.Duration) error {
	buf, err := json.Marshal(cachedModel{Version: version, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal cached model: %w", err)
	}
	return c.rdb.Set(ctx, productionModelKey, buf, ttl).Err()
}

// GetProductionModel returns the cached production model, or found=false
// on a cache miss.
func (c *Client) GetProductionModel(ctx context.Context) (version int, payload []byte, found bool, err error) {
	raw, err := c.rdb.Get(ctx, productionModelKey).Bytes()
	if err == redis.Nil {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}

	var cached cachedModel
	if err := json.Unmarshal(raw, &cached); err != nil {
		return 0, nil, false, fmt.Errorf("failed to unmarshal cached model: %w", err)
	}
	return cached.Version, cached.Payload, true, nil
}

// InvalidateProductionModel drops the cached production model. Called
// after promotions and rollbacks.
func (c *Client) InvalidateProductionModel(ctx context.Context) error {
	return c.rdb.Del(ctx, productionModelKey).Err()
}

// SetReferenceScores records the score distribution drift checks compare
// against.
func (c *Client) SetReferenceScores(ctx context.Context, scores []float64) error {
	buf, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to marshal reference scores: %w", err)
	}
	return c.rdb.Set(ctx, referenceScoresKey, buf, 0).Err()
}

// ReferenceScores returns the recorded reference score distribution. An
// absent key yields an empty slice.
func (c *Client) ReferenceScores(ctx context.Context) ([]float64, error) {
	raw, err := c.rdb.Get(ctx, referenceScoresKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var scores []float64
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reference scores: %w", err)
	}
	return scores, nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf(idempotencyKeySpace, key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf(idempotencyKeySpace, key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf(lockKeySpace, lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf(lockKeySpace, lockKey)).Err()
}
