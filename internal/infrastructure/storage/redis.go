package storage

import (
	"context"
	"errors"
	"fmt"

	"smartlist/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore 使用 Redis 保存鍵值，計數器以 INCR 原子遞增
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 連線 Redis 並確認可用
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient 包裝現有 client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get 讀取鍵值
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Set 寫入鍵值（不過期）
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Incr 原子遞增
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err == nil {
		return n, nil
	}
	if s.holdsNonInteger(ctx, key, err) {
		return 0, fmt.Errorf("%w: %v", ErrNotInteger, err)
	}
	return 0, fmt.Errorf("redis incr: %w", err)
}

// holdsNonInteger 伺服器回覆錯誤時，重新讀取鍵值確認是否為非整數
func (s *RedisStore) holdsNonInteger(ctx context.Context, key string, incrErr error) bool {
	var reply redis.Error
	if !errors.As(incrErr, &reply) {
		return false
	}
	current, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	_, parseErr := incrValue(current, true)
	return errors.Is(parseErr, ErrNotInteger)
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
