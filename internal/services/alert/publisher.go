// Package alert fans ledger side-records out to live dashboards.
// Publishing is fire-and-forget: a failed publish is logged and never
// rolls back the ledger transaction that produced the alert.
package alert

import (
	"context"
	"fmt"

	"schoolops/internal/models"
	"schoolops/internal/repositories/cache"
)

type Publisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
}

type redisPublisher struct {
	cache *cache.CacheService
}

func NewRedisPublisher(cacheService *cache.CacheService) Publisher {
	if cacheService == nil {
		panic("cache service is required")
	}
	return &redisPublisher{cache: cacheService}
}

func (p *redisPublisher) Publish(ctx context.Context, alert *models.Alert) error {
	channel := fmt.Sprintf("alerts:%s", alert.Branch)
	return p.cache.Publish(ctx, channel, alert)
}

// NoopPublisher is used in tests and when Redis is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.Alert) error { return nil }
