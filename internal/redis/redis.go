package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"pdf2slides/internal/config"
)

const (
	defaultHost    = "127.0.0.1"
	defaultPort    = 6379
	connectTimeout = 3 * time.Second
)

var (
	// ErrCacheMiss mirrors redis.Nil for callers.
	ErrCacheMiss      = redis.Nil
	errNotInitialized = errors.New("redis client not initialized")
)

// Client is the narrow byte-value surface the job store needs.
type Client struct {
	inner *redis.Client
}

// NewRedisClient connects using cfg.Redis and verifies the server answers PING.
func NewRedisClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	host := cfg.Redis.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Redis.Port
	if port == 0 {
		port = defaultPort
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", client.Options().Addr, err)
	}
	return &Client{inner: client}, nil
}

func (c *Client) ready() error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	return nil
}

// Put stores value under key for ttl.
func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.inner.Set(ctx, key, value, ttl).Err()
}

// Fetch returns the raw value, or ErrCacheMiss.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.inner.Get(ctx, key).Bytes()
}

func (c *Client) Remove(ctx context.Context, keys ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.inner.Del(ctx, keys...).Err()
}

// TTL returns the remaining lifetime of key.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return c.inner.TTL(ctx, key).Result()
}

func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
