package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mealwise/meal-plan/internal/models"
)

// PlanCache caches computed plan summaries in Redis. Summaries touch every
// recipe line of every meal, so they are the one read worth caching. The
// cache is optional; a nil client turns every call into a no-op.
type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewPlanCache connects to Redis when addr is set; an empty addr disables
// caching without error
func NewPlanCache(addr, password string, ttl time.Duration, log *zap.Logger) (*PlanCache, error) {
	cache := &PlanCache{ttl: ttl, log: log}
	if addr == "" {
		return cache, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache.client = client
	return cache, nil
}

// Enabled reports whether a Redis backend is attached
func (c *PlanCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetSummary returns a cached plan summary, or (nil, nil) on miss
func (c *PlanCache) GetSummary(ctx context.Context, planID int) (*models.PlanSummary, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, summaryKey(planID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached summary: %w", err)
	}

	var summary models.PlanSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached summary: %w", err)
	}
	return &summary, nil
}

// SetSummary caches a plan summary for the configured TTL
func (c *PlanCache) SetSummary(ctx context.Context, summary *models.PlanSummary) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(summary.PlanID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached summary: %w", err)
	}
	return nil
}

// Invalidate drops a plan's cached summary. Called after any write that
// changes the plan's meals, its recipes' lines, or the calorie target.
func (c *PlanCache) Invalidate(ctx context.Context, planID int) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, summaryKey(planID)).Err(); err != nil {
		c.log.Warn("failed to invalidate plan summary cache",
			zap.Int("plan_id", planID),
			zap.Error(err))
	}
}

// Close releases the Redis connection
func (c *PlanCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func summaryKey(planID int) string {
	return fmt.Sprintf("plan:summary:%d", planID)
}
