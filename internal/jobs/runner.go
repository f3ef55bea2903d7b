package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/duartefn/worten-price-scraper/internal/models"
	"github.com/duartefn/worten-price-scraper/internal/queue"
	"github.com/duartefn/worten-price-scraper/internal/ratelimit"
)

// ProductStore persists scrape outcomes.
type ProductStore interface {
	ApplyScrapeResult(ctx context.Context, originalID string, result *models.ScrapeResult) error
}

// ProductSearcher looks one product up; implementations never return nil.
type ProductSearcher interface {
	Search(ctx context.Context, productName, barcode string) *models.ScrapeResult
}

// EventPublisher emits scrape outcomes to interested consumers.
type EventPublisher interface {
	PublishScrape(ctx context.Context, originalID string, result *models.ScrapeResult) error
}

// resultRecorder is the optional feedback surface of adaptive rate limiters.
type resultRecorder interface {
	RecordSuccess()
	RecordError()
}

// Summary is the batch outcome. Scraped is the number of products attempted;
// the other three partition it.
type Summary struct {
	Scraped  int `json:"scraped"`
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

// Runner drives a batch of products through the searcher, persisting and
// publishing every outcome. A summary is always produced, even when the batch
// is cut short by cancellation.
type Runner struct {
	store     ProductStore
	searcher  ProductSearcher
	publisher EventPublisher
	limiter   ratelimit.RateLimiter
	logger    *slog.Logger
}

type RunnerOption func(*Runner)

// WithPublisher attaches an event publisher; scrapes run fine without one.
func WithPublisher(p EventPublisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithRateLimiter replaces the default inter-product limiter.
func WithRateLimiter(l ratelimit.RateLimiter) RunnerOption {
	return func(r *Runner) { r.limiter = l }
}

func NewRunner(store ProductStore, searcher ProductSearcher, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		searcher: searcher,
		limiter:  ratelimit.NewSimpleRateLimiter(2*time.Second, 3*time.Second),
		logger:   logger.With("component", "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scrapes the given products in order. A positive limit caps how many are
// attempted; a positive delay overrides the limiter's pause between products.
func (r *Runner) Run(ctx context.Context, products []*models.Product, limit int, delay time.Duration) Summary {
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	if delay > 0 && r.limiter != nil {
		r.limiter.SetDelay(delay, delay+delay/2)
	}

	tasks := queue.NewInMemoryQueue()
	for _, p := range products {
		// Push on an open in-memory queue cannot fail.
		_ = tasks.Push(&queue.Task{
			OriginalID: p.OriginalID,
			EAN:        p.EAN,
			Name:       p.OriginalName,
		})
	}
	tasks.Close()

	summary := Summary{}
	r.logger.Info("batch started", "products", tasks.Size())

	for {
		task, err := tasks.Pop(ctx)
		if err != nil {
			if err == queue.ErrQueueClosed || err == queue.ErrQueueEmpty {
				break
			}
			r.logger.Warn("batch cancelled", "error", err, "scraped", summary.Scraped)
			break
		}

		if summary.Scraped > 0 && r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.logger.Warn("batch cancelled", "error", err, "scraped", summary.Scraped)
				break
			}
		}

		r.scrapeOne(ctx, task, &summary)
	}

	r.logger.Info("batch finished",
		"scraped", summary.Scraped,
		"found", summary.Found,
		"not_found", summary.NotFound,
		"errors", summary.Errors)

	return summary
}

// scrapeOne handles a single product end to end. Persistence failures count
// as the product's error so a broken store never inflates the found column.
func (r *Runner) scrapeOne(ctx context.Context, task *queue.Task, summary *Summary) {
	summary.Scraped++

	result := r.searcher.Search(ctx, task.Name, task.EAN)
	if result == nil {
		result = models.ErrorResult("searcher returned no result")
	}

	if err := r.store.ApplyScrapeResult(ctx, task.OriginalID, result); err != nil {
		r.logger.Error("failed to persist result", "original_id", task.OriginalID, "error", err)
		if result.Error == "" {
			result = models.ErrorResult("persist failed: " + err.Error())
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishScrape(ctx, task.OriginalID, result); err != nil {
			r.logger.Warn("failed to publish event", "original_id", task.OriginalID, "error", err)
		}
	}

	recorder, adaptive := r.limiter.(resultRecorder)

	switch {
	case result.Error != "":
		summary.Errors++
		if adaptive {
			recorder.RecordError()
		}
		r.logger.Warn("product failed", "original_id", task.OriginalID, "error", result.Error)
	case result.Acceptable():
		summary.Found++
		if adaptive {
			recorder.RecordSuccess()
		}
		r.logger.Info("product found", "original_id", task.OriginalID, "url", result.URL)
	default:
		summary.NotFound++
		if adaptive {
			recorder.RecordSuccess()
		}
		r.logger.Info("product not found", "original_id", task.OriginalID)
	}
}
