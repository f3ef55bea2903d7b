package browser

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Browser owns one Playwright session against Worten. It is a scoped
// resource: acquire once per batch, release unconditionally afterwards. It
// holds a single navigation state, so it must not be shared across
// concurrent searches.
type Browser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	context   playwright.BrowserContext
	logger    *slog.Logger
	closeOnce sync.Once
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		// Cloudflare blocks headless far more aggressively; default to a
		// visible window and let deployments opt in via config.
		Headless:       false,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "pt-PT,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		TimezoneID:     "Europe/Lisbon",
		Locale:         "pt-PT",
		ExtraHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Encoding": "gzip, deflate, br",
			"DNT":             "1",
		},
	}
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--window-size=1920,1080",
			"--user-agent=" + opts.UserAgent,
		},
	}

	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: opts.ExtraHeaders,
	}

	context, err := b.NewContext(contextOpts)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: b,
		context: context,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

func (b *Browser) NewPage() (playwright.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(DefaultOptions().Timeout.Milliseconds()))

	return page, nil
}

// Close releases the session. Idempotent and error-swallowing by contract:
// teardown failures are logged, never surfaced, so they cannot mask whatever
// result the batch produced.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.context != nil {
			if err := b.context.Close(); err != nil {
				b.logger.Warn("failed to close context", "error", err)
			}
		}
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				b.logger.Warn("failed to close browser", "error", err)
			}
		}
		if b.pw != nil {
			if err := b.pw.Stop(); err != nil {
				b.logger.Warn("failed to stop playwright", "error", err)
			}
		}
	})
	return nil
}

func (b *Browser) NavigateWithRetry(page playwright.Page, url string, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			b.logger.Info("retrying navigation", "attempt", i+1, "url", url)
			time.Sleep(time.Duration(i+1) * time.Second)
		}

		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(30000),
		})
		if err == nil {
			return nil
		}

		lastErr = err
		b.logger.Error("navigation failed", "error", err, "attempt", i+1)
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// WarmUp visits the homepage once so the Cloudflare challenge clears before
// the first real search. Bounded wait; a timeout is reported but not fatal,
// later navigations may still succeed.
func (b *Browser) WarmUp(page playwright.Page, baseURL string) error {
	b.logger.Info("warming up session", "url", baseURL)

	if _, err := page.Goto(baseURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return fmt.Errorf("warm-up navigation failed: %w", err)
	}

	for i := 0; i < 30; i++ {
		if !b.challengeActive(page) {
			b.logger.Info("challenge cleared")
			time.Sleep(1 * time.Second)
			return nil
		}
		time.Sleep(1 * time.Second)
	}

	return fmt.Errorf("challenge did not clear within 30s")
}

// WaitForPageLoad polls until the page is past the Cloudflare interstitial.
func (b *Browser) WaitForPageLoad(page playwright.Page, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !b.challengeActive(page) {
			return true
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

// challengeActive checks the title for the pt-PT Cloudflare interstitial
// ("Um momento...") or the generic challenge marker.
func (b *Browser) challengeActive(page playwright.Page) bool {
	title, err := page.Title()
	if err != nil {
		return false
	}
	title = strings.ToLower(title)
	return strings.Contains(title, "momento") || strings.Contains(title, "challenge")
}

// AcceptCookies dismisses the consent banner when it shows up. Failure is
// ignored; the banner does not block scraping, only screenshots.
func (b *Browser) AcceptCookies(page playwright.Page) {
	selectors := []string{"#onetrust-accept-btn-handler", `button[id*="accept"]`}

	for _, selector := range selectors {
		btn := page.Locator(selector).First()
		count, err := btn.Count()
		if err != nil || count == 0 {
			continue
		}
		if err := btn.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(2000),
		}); err != nil {
			continue
		}
		time.Sleep(500 * time.Millisecond)
		return
	}
}
