package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/duartefn/worten-price-scraper/internal/browser"
)

const cardPollAttempts = 15

// BrowserFetcher drives a Playwright session through Worten search. It keeps
// one page for its whole lifetime: the Cloudflare clearance lives in that
// page's session, so recreating pages would re-trigger the challenge.
type BrowserFetcher struct {
	browser   *browser.Browser
	page      playwright.Page
	baseURL   string
	searchURL string
	warmedUp  bool
	logger    *slog.Logger
}

func NewBrowserFetcher(b *browser.Browser, baseURL, searchURL string, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		browser:   b,
		baseURL:   baseURL,
		searchURL: searchURL,
		logger:    logger.With("component", "browser_fetcher"),
	}
}

func (f *BrowserFetcher) FetchSearchResults(ctx context.Context, term string) (*Result, error) {
	page, err := f.currentPage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	searchURL := f.searchURL + "?query=" + url.QueryEscape(term)
	if err := f.browser.NavigateWithRetry(page, searchURL, 3); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	if !f.browser.WaitForPageLoad(page, 10*time.Second) {
		return nil, ErrChallenge
	}

	f.browser.AcceptCookies(page)
	f.waitForCards(ctx, page)

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	return &Result{
		FinalURL: page.URL(),
		HTML:     html,
		Page:     page,
		Mode:     ModeRendered,
	}, nil
}

// waitForCards scrolls and polls until product cards render. Bounded: cards
// may legitimately never appear (empty results page).
func (f *BrowserFetcher) waitForCards(ctx context.Context, page playwright.Page) {
	for i := 0; i < cardPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}

		// Nudge lazy loading.
		if _, err := page.Evaluate(`window.scrollTo(0, 300)`); err != nil {
			continue
		}

		count, err := page.Locator(".product-card, article.product-card").Count()
		if err == nil && count > 0 {
			f.logger.Info("product cards rendered", "count", count)
			return
		}
	}
	f.logger.Warn("no product cards after wait")
}

func (f *BrowserFetcher) currentPage() (playwright.Page, error) {
	if f.page != nil && !f.page.IsClosed() {
		return f.page, nil
	}

	page, err := f.browser.NewPage()
	if err != nil {
		return nil, err
	}
	f.page = page

	if !f.warmedUp {
		if err := f.browser.WarmUp(page, f.baseURL); err != nil {
			f.logger.Warn("warm-up incomplete", "error", err)
		}
		f.warmedUp = true
	}

	return page, nil
}

// Close releases the underlying browser session.
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
