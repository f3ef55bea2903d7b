package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

type mockRedis struct {
	lastArgs *redis.XAddArgs
	err      error
}

func (m *mockRedis) XAdd(_ context.Context, args *redis.XAddArgs) *redis.StringCmd {
	m.lastArgs = args
	return redis.NewStringResult("1-0", m.err)
}

func (m *mockRedis) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishScrape(t *testing.T) {
	mock := &mockRedis{}
	publisher := NewPublisher(mock, testLogger())

	price := 49.90
	result := &models.ScrapeResult{
		Name:      "Widget",
		URL:       "https://www.worten.pt/p/widget-1",
		Price:     &price,
		Available: true,
	}

	err := publisher.PublishScrape(context.Background(), "1001", result)
	require.NoError(t, err)

	require.NotNil(t, mock.lastArgs)
	assert.Equal(t, ScrapeStream, mock.lastArgs.Stream)
	values := mock.lastArgs.Values.(map[string]interface{})
	assert.Equal(t, "1001", values["original_id"])
	assert.Equal(t, "true", values["found"])
	assert.Equal(t, "49.90", values["price"])
	assert.Equal(t, "", values["error"])
	assert.NotEmpty(t, values["event_id"])
}

func TestPublishScrapeFailureRecord(t *testing.T) {
	mock := &mockRedis{}
	publisher := NewPublisher(mock, testLogger())

	err := publisher.PublishScrape(context.Background(), "1002", models.ErrorResult("fetch timeout"))
	require.NoError(t, err)

	values := mock.lastArgs.Values.(map[string]interface{})
	assert.Equal(t, "false", values["found"])
	assert.Equal(t, "", values["price"])
	assert.Equal(t, "fetch timeout", values["error"])
}

func TestPublishScrapeRedisDown(t *testing.T) {
	mock := &mockRedis{err: errors.New("connection refused")}
	publisher := NewPublisher(mock, testLogger())

	err := publisher.PublishScrape(context.Background(), "1001", models.NotFoundResult())
	assert.Error(t, err)
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var publisher *Publisher
	err := publisher.PublishScrape(context.Background(), "1001", models.NotFoundResult())
	assert.NoError(t, err)
	assert.NoError(t, publisher.Close())
}
