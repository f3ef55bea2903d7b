package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

// ScrapeStream is the Redis stream scrape outcomes are published to.
const ScrapeStream = "worten:scrapes"

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher pushes scrape outcomes onto a Redis stream so other services can
// react to price changes. A nil *Publisher is valid and publishes nothing,
// which lets the batch runner treat Redis as optional.
type Publisher struct {
	redis  RedisClient
	logger *slog.Logger
	stream string
}

func NewPublisher(client RedisClient, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		logger: logger.With("component", "events"),
		stream: ScrapeStream,
	}
}

// PublishScrape emits one scrape outcome. Publishing is best-effort from the
// batch's point of view; callers log the error and move on.
func (p *Publisher) PublishScrape(ctx context.Context, originalID string, result *models.ScrapeResult) error {
	if p == nil || p.redis == nil {
		return nil
	}
	if result == nil {
		return fmt.Errorf("nil scrape result for product %s", originalID)
	}

	price := ""
	if result.Price != nil {
		price = fmt.Sprintf("%.2f", *result.Price)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_id":    uuid.New().String(),
			"original_id": originalID,
			"found":       fmt.Sprintf("%t", result.Acceptable()),
			"available":   fmt.Sprintf("%t", result.Available),
			"price":       price,
			"error":       result.Error,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("scrape event published", "original_id", originalID, "stream", p.stream)
	return nil
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	if p == nil || p.redis == nil {
		return nil
	}
	return p.redis.Close()
}
