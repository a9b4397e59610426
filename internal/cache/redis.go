package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache keeps available-slot listings keyed by responder and requested
// range for a short TTL. Booking mutations invalidate every entry of the
// affected responder so stale availability never outlives a hold.
type RedisCache struct {
	client   *redis.Client
	slotsTTL time.Duration
}

func NewRedisCache(cfg Config, slotsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		slotsTTL: slotsTTL,
	}
}

func (c *RedisCache) GetAvailableSlots(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error) {
	data, err := c.client.Get(ctx, slotsKey(responderID, from, to)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var slots []domain.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetAvailableSlots(ctx context.Context, responderID string, from, to time.Time, slots []domain.Slot) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slotsKey(responderID, from, to), payload, c.slotsTTL).Err()
}

// InvalidateSlots drops every cached range for the responder.
func (c *RedisCache) InvalidateSlots(ctx context.Context, responderID string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("cache:slots:%s:*", responderID), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func slotsKey(responderID string, from, to time.Time) string {
	return fmt.Sprintf("cache:slots:%s:%d:%d", responderID, from.Unix(), to.Unix())
}
