// Package cache wraps the Redis client used for balance read caching
// and alert fan-out. Cache misses and failures are never fatal; the
// database rows stay authoritative.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"schoolops/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Balance caching

func balanceKey(accountID uint) string {
	return fmt.Sprintf("balance:%d", accountID)
}

func (s *CacheService) GetBalance(ctx context.Context, accountID uint) (*models.AccountBalance, bool) {
	var balance models.AccountBalance
	found, err := s.Get(ctx, balanceKey(accountID), &balance)
	if err != nil || !found {
		return nil, false
	}
	return &balance, true
}

func (s *CacheService) SetBalance(ctx context.Context, balance *models.AccountBalance) error {
	return s.Set(ctx, balanceKey(balance.AccountID), balance)
}

func (s *CacheService) InvalidateBalance(ctx context.Context, accountID uint) error {
	return s.Delete(ctx, balanceKey(accountID))
}

// Publish fans a payload out on a Redis channel. Used for live
// dashboard alerts; delivery is best-effort.
func (s *CacheService) Publish(ctx context.Context, channel string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal publish payload: %w", err)
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *CacheService) Stats() map[string]interface{} {
	stats := s.client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
