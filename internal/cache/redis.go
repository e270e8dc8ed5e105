package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/garagedata/vehiclefacts/internal/model"
)

const redisKeyPrefix = "vehiclefacts:report:"

// RedisStore is a cache backend on go-redis. Redis enforces expiry
// itself via SET EX, which satisfies the stale-read contract outright.
type RedisStore struct {
	client *redis.Client
	ttl    TTLConfig
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis creates a Redis cache store and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions, ttl TTLConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "cache: redis ping")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisFromClient wraps an existing client, e.g. miniredis in tests.
func NewRedisFromClient(client *redis.Client, ttl TTLConfig) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key model.VehicleKey) (*model.ResolutionReport, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key.CacheKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: redis get %s", key.CacheKey())
	}

	var rep model.ResolutionReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, eris.Wrapf(err, "cache: unmarshal report for %s", key.CacheKey())
	}
	return &rep, nil
}

func (s *RedisStore) Put(ctx context.Context, key model.VehicleKey, rep *model.ResolutionReport) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return eris.Wrap(err, "cache: marshal report")
	}

	ttl := s.ttl.For(ClassFor(rep))
	if err := s.client.Set(ctx, redisKeyPrefix+key.CacheKey(), data, ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: redis put %s", key.CacheKey())
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key model.VehicleKey) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key.CacheKey()).Err(); err != nil {
		return eris.Wrapf(err, "cache: redis delete %s", key.CacheKey())
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
