package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StaticFetcher hits the search endpoint over plain HTTP. No scripts run, so
// lazy-loaded markup is missing and Cloudflare may refuse the request; it is
// the fallback for environments without a rendering engine.
type StaticFetcher struct {
	client    *http.Client
	searchURL string
	headers   map[string]string
}

func NewStaticFetcher(searchURL string, timeout time.Duration) *StaticFetcher {
	return &StaticFetcher{
		client:    &http.Client{Timeout: timeout},
		searchURL: searchURL,
		headers: map[string]string{
			"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "pt-PT,pt;q=0.9,en-US;q=0.8,en;q=0.7",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
		},
	}
}

func (f *StaticFetcher) FetchSearchResults(ctx context.Context, term string) (*Result, error) {
	searchURL := f.searchURL + "?query=" + url.QueryEscape(term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrBlocked
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	html := string(body)
	if challengeBody(html) {
		return nil, ErrChallenge
	}

	return &Result{
		FinalURL: resp.Request.URL.String(),
		HTML:     html,
		Mode:     ModeStatic,
	}, nil
}

func (f *StaticFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// challengeBody detects the Cloudflare interstitial served with a 200.
func challengeBody(html string) bool {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "challenge") {
		return true
	}
	head := lower
	if len(head) > 500 {
		head = head[:500]
	}
	return strings.Contains(head, "momento")
}
