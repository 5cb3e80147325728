package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// scanCount is the batch size hint used while walking keys for DeletePrefix.
const scanCount = 100

// RedisConfig locates the redis server shared by all instances of the app.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisStore keeps entries in redis and lets the server expire them.
type RedisStore struct {
	inner *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{inner: client}
}

// DialRedis connects to redis and makes sure the server answers.
func DialRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", cfg.Addr())
	}
	return NewRedisStore(client), nil
}

var _ Store = &RedisStore{}

// Get returns the value under key. A missing key is not an error.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.inner.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return value, true, nil
}

// Set stores value with a server side expiry.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrap(r.inner.Set(ctx, key, value, ttl).Err(), "redis set")
}

// DeletePrefix scans for keys starting with prefix and deletes them batch by batch.
func (r *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.inner.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			return errors.Wrap(err, "redis scan")
		}
		if len(keys) > 0 {
			if err := r.inner.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.inner.Close()
}
