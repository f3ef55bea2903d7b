package worten

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duartefn/worten-price-scraper/internal/fetch"
	"github.com/duartefn/worten-price-scraper/internal/models"
)

// Extractor is one strategy for turning a fetched page into a result. It
// returns nil when the strategy does not apply to the input at all (wrong
// mode, no payload); a non-nil result may still be unacceptable, in which
// case the next strategy or term is tried.
type Extractor interface {
	Name() string
	Extract(res *fetch.Result) *models.ScrapeResult
}

// PageDataStrategy reads the embedded JSON payload; works in both modes and
// is always tried first.
type PageDataStrategy struct{}

func (PageDataStrategy) Name() string { return "page_data" }

func (PageDataStrategy) Extract(res *fetch.Result) *models.ScrapeResult {
	return ExtractPageData(res.HTML)
}

// DOMStrategy walks the live element tree; rendered mode only.
type DOMStrategy struct{}

func (DOMStrategy) Name() string { return "dom" }

func (DOMStrategy) Extract(res *fetch.Result) *models.ScrapeResult {
	if res.Mode != fetch.ModeRendered || res.Page == nil {
		return nil
	}
	return ExtractSearchDOM(res.Page)
}

// StaticStrategy parses the raw markup; static mode only.
type StaticStrategy struct{}

func (StaticStrategy) Name() string { return "static_html" }

func (StaticStrategy) Extract(res *fetch.Result) *models.ScrapeResult {
	if res.Mode != fetch.ModeStatic {
		return nil
	}
	return ExtractSearchHTML(res.HTML)
}

// Worten's empty-results page markers.
var noResultMarkers = []string{"sem resultados", "nenhum resultado"}

// Searcher drives term candidates through the page fetcher and the
// extraction strategies. Search never returns nil and never panics: every
// per-term failure is contained and converted into a result.
type Searcher struct {
	fetcher    fetch.Fetcher
	extractors []Extractor
	logger     *slog.Logger
	termDelay  time.Duration
}

type SearcherOption func(*Searcher)

// WithTermDelay sets the pause between consecutive term attempts.
func WithTermDelay(d time.Duration) SearcherOption {
	return func(s *Searcher) { s.termDelay = d }
}

// WithExtractors overrides the strategy list; mainly for tests.
func WithExtractors(extractors ...Extractor) SearcherOption {
	return func(s *Searcher) { s.extractors = extractors }
}

func NewSearcher(fetcher fetch.Fetcher, logger *slog.Logger, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		fetcher:    fetcher,
		extractors: []Extractor{PageDataStrategy{}, DOMStrategy{}, StaticStrategy{}},
		logger:     logger.With("component", "searcher"),
		termDelay:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search looks a product up on Worten. The barcode is accepted for future
// use; Worten's search rarely resolves EANs, so terms are planned from the
// name alone, exactly like the spreadsheet flow expects.
func (s *Searcher) Search(ctx context.Context, productName, barcode string) *models.ScrapeResult {
	terms := PlanTerms(productName)
	if len(terms) == 0 {
		return models.ErrorResult("no search term provided")
	}

	var lastFailure *models.ScrapeResult
	sawCleanMiss := false

	for i, term := range terms {
		result := s.searchTerm(ctx, term)
		if result.Acceptable() {
			s.logger.Info("product found", "term", term, "url", result.URL)
			return result
		}

		if result.Error != "" {
			s.logger.Warn("term attempt failed", "term", term, "error", result.Error)
			lastFailure = result
		} else {
			sawCleanMiss = true
		}

		if ctx.Err() != nil {
			return models.ErrorResult("search cancelled: " + ctx.Err().Error())
		}

		if i < len(terms)-1 && s.termDelay > 0 {
			select {
			case <-ctx.Done():
				return models.ErrorResult("search cancelled: " + ctx.Err().Error())
			case <-time.After(s.termDelay):
			}
		}
	}

	// A clean miss on any term means the site answered and simply does not
	// list the product; only all-terms-failed surfaces as an error.
	if !sawCleanMiss && lastFailure != nil {
		return lastFailure
	}
	return models.NotFoundResult()
}

// searchTerm runs one term end to end. Fetcher panics (rendering engine
// crashes mid-call) are contained here so one product can never take the
// batch down.
func (s *Searcher) searchTerm(ctx context.Context, term string) (result *models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("fetcher panicked", "term", term, "panic", r)
			result = models.ErrorResult(fmt.Sprintf("fetcher panic: %v", r))
		}
	}()

	res, err := s.fetcher.FetchSearchResults(ctx, term)
	if err != nil {
		return models.ErrorResult(err.Error())
	}

	// The search box resolves very specific queries straight to the product
	// page; that page is the best possible answer.
	if IsProductPageURL(res.FinalURL) {
		if r := s.extractProductPage(res); r != nil && (r.Name != "" || r.Price != nil) {
			return r
		}
	}

	if isNoResultsPage(res.HTML) {
		return models.NotFoundResult()
	}

	var lastAttempt *models.ScrapeResult
	for _, extractor := range s.extractors {
		r := extractor.Extract(res)
		if r == nil {
			continue
		}
		if r.Acceptable() {
			s.logger.Debug("strategy matched", "strategy", extractor.Name(), "term", term)
			return r
		}
		lastAttempt = r
	}

	if lastAttempt != nil {
		return lastAttempt
	}
	return models.NotFoundResult()
}

func (s *Searcher) extractProductPage(res *fetch.Result) *models.ScrapeResult {
	if res.Mode == fetch.ModeRendered && res.Page != nil {
		return ExtractProductPageDOM(res.Page, res.FinalURL)
	}
	return ExtractProductPageHTML(res.HTML, res.FinalURL)
}

func isNoResultsPage(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range noResultMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
