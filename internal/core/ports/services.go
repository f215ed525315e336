package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// MeshRenderer turns a projection into bytes of one output format.
type MeshRenderer interface {
	Format() domain.Format
	Render(ctx context.Context, p *domain.Projection) ([]byte, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRenderEvent(ctx context.Context, event *domain.RenderEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// RenderRepository persists the render history.
type RenderRepository interface {
	Insert(ctx context.Context, rec *domain.RenderRecord) error
	ListRecent(ctx context.Context, offset, limit int) ([]domain.RenderRecord, int, error)
}
