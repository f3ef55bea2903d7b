package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duartefn/worten-price-scraper/internal/models"
	"github.com/duartefn/worten-price-scraper/internal/ratelimit"
)

func newTestRunner(store ProductStore, searcher ProductSearcher, opts ...RunnerOption) *Runner {
	opts = append(opts, WithRateLimiter(ratelimit.NewSimpleRateLimiter(0, 0)))
	return NewRunner(store, searcher, testLogger(), opts...)
}

type fakeStore struct {
	applied map[string]*models.ScrapeResult
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{applied: make(map[string]*models.ScrapeResult)}
}

func (s *fakeStore) ApplyScrapeResult(_ context.Context, originalID string, result *models.ScrapeResult) error {
	if s.err != nil {
		return s.err
	}
	s.applied[originalID] = result
	return nil
}

type fakeSearcher struct {
	results map[string]*models.ScrapeResult
	calls   []string
}

func (s *fakeSearcher) Search(_ context.Context, productName, _ string) *models.ScrapeResult {
	s.calls = append(s.calls, productName)
	if r, ok := s.results[productName]; ok {
		return r
	}
	return models.NotFoundResult()
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishScrape(_ context.Context, originalID string, _ *models.ScrapeResult) error {
	p.published = append(p.published, originalID)
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProducts() []*models.Product {
	return []*models.Product{
		{OriginalID: "1", OriginalName: "Aspirador Dyson"},
		{OriginalID: "2", OriginalName: "Coluna JBL"},
		{OriginalID: "3", OriginalName: "Produto Fantasma"},
	}
}

func foundResult() *models.ScrapeResult {
	price := 99.99
	return &models.ScrapeResult{
		Name:      "Aspirador Dyson V15",
		URL:       "https://www.worten.pt/produtos/dyson-1",
		Price:     &price,
		Seller:    "Worten",
		Available: true,
	}
}

func TestRunCountsOutcomes(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{results: map[string]*models.ScrapeResult{
		"Aspirador Dyson": foundResult(),
		"Coluna JBL":      models.ErrorResult("fetch timeout"),
	}}
	publisher := &fakePublisher{}

	runner := newTestRunner(store, searcher, WithPublisher(publisher))
	summary := runner.Run(context.Background(), testProducts(), 0, 0)

	assert.Equal(t, Summary{Scraped: 3, Found: 1, NotFound: 1, Errors: 1}, summary)
	assert.Len(t, store.applied, 3, "every outcome is persisted")
	assert.Len(t, publisher.published, 3, "every outcome is published")
	assert.True(t, store.applied["1"].Available)
	assert.Equal(t, "fetch timeout", store.applied["2"].Error)
	assert.Empty(t, store.applied["3"].Error, "a clean miss carries no error")
}

func TestRunHonorsLimit(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{}

	runner := newTestRunner(store, searcher)
	summary := runner.Run(context.Background(), testProducts(), 2, 0)

	assert.Equal(t, 2, summary.Scraped)
	assert.Len(t, searcher.calls, 2)
}

func TestRunEmptyBatch(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &fakeSearcher{})
	summary := runner.Run(context.Background(), nil, 0, 0)
	assert.Equal(t, Summary{}, summary)
}

func TestRunStoreFailureCountsAsError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	searcher := &fakeSearcher{results: map[string]*models.ScrapeResult{
		"Aspirador Dyson": foundResult(),
	}}

	runner := newTestRunner(store, searcher)
	summary := runner.Run(context.Background(), testProducts()[:1], 0, 0)

	assert.Equal(t, Summary{Scraped: 1, Errors: 1}, summary)
}

func TestRunPublisherFailureDoesNotAbort(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{err: errors.New("redis down")}

	runner := newTestRunner(store, &fakeSearcher{}, WithPublisher(publisher))
	summary := runner.Run(context.Background(), testProducts(), 0, 0)

	assert.Equal(t, 3, summary.Scraped)
	assert.Len(t, store.applied, 3)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(newFakeStore(), &fakeSearcher{})
	summary := runner.Run(ctx, testProducts(), 0, 0)

	assert.LessOrEqual(t, summary.Scraped, 1, "cancellation stops the batch between products")
}
