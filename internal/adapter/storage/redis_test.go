package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"stockroom/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("STOCKROOM_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCache_SetAndDeleteStock(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	cache := NewRedisCache(client)

	client.Del(ctx, "stock:test-widget")

	if err := cache.SetStock(ctx, "test-widget", 12); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	got, err := client.Get(ctx, "stock:test-widget").Int()
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if got != 12 {
		t.Errorf("expected stock 12, got %d", got)
	}

	if err := cache.DeleteStock(ctx, "test-widget"); err != nil {
		t.Fatalf("delete stock failed: %v", err)
	}
	if err := client.Get(ctx, "stock:test-widget").Err(); err != redis.Nil {
		t.Errorf("expected key gone, got: %v", err)
	}
}

func TestRedisCache_PublishLowStockAlert(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	cache := NewRedisCache(client)

	sub := client.Subscribe(ctx, lowStockChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	alert := domain.LowStockAlert{
		ID:        "test-alert-1",
		Name:      "test-widget",
		Quantity:  2,
		Threshold: 10,
		At:        time.Now().UTC(),
	}
	if err := cache.PublishLowStockAlert(ctx, alert); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.LowStockAlert
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal alert: %v", err)
		}
		if got.ID != alert.ID || got.Name != alert.Name || got.Quantity != alert.Quantity {
			t.Errorf("expected %+v, got %+v", alert, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}
