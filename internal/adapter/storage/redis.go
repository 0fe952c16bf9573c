package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stockroom/internal/core/domain"
	"stockroom/internal/port"
)

const (
	stockKeyPrefix  = "stock:"
	lowStockChannel = "stockroom:lowstock"
)

// RedisCache mirrors stock levels into Redis under stock:<name> keys and
// publishes low-stock alerts on a pub/sub channel for external consumers
// (dashboards, alerting). The mirror is advisory only.
type RedisCache struct {
	client *redis.Client
}

var _ port.StockCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) SetStock(ctx context.Context, name string, quantity int) error {
	return r.client.Set(ctx, stockKeyPrefix+name, quantity, 0).Err()
}

func (r *RedisCache) DeleteStock(ctx context.Context, name string) error {
	return r.client.Del(ctx, stockKeyPrefix+name).Err()
}

func (r *RedisCache) PublishLowStockAlert(ctx context.Context, alert domain.LowStockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return r.client.Publish(ctx, lowStockChannel, payload).Err()
}
