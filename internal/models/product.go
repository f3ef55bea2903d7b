package models

import (
	"time"
)

// Product is a tracked catalog entry: the imported spreadsheet fields plus
// whatever the last scrape found on Worten.
type Product struct {
	OriginalID   string     `json:"original_id"`
	EAN          string     `json:"ean"`
	OriginalName string     `json:"original_name"`
	WortenName   string     `json:"worten_name,omitempty"`
	WortenURL    string     `json:"worten_url,omitempty"`
	LowestPrice  *float64   `json:"lowest_price,omitempty"`
	SellerName   string     `json:"seller_name,omitempty"`
	IsAvailable  bool       `json:"is_available"`
	LastScraped  *time.Time `json:"last_scraped,omitempty"`
	ScrapeError  string     `json:"scrape_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ScrapeResult is the outcome of one search attempt against Worten. A result
// is built fresh per extraction strategy and never mutated afterwards.
//
// Exactly one of three shapes crosses the search boundary: a hit (URL and/or
// positive price), a clean miss (Available false, Error empty) or a failure
// (Error set, Available always false).
type ScrapeResult struct {
	Name      string   `json:"name,omitempty"`
	URL       string   `json:"url,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Seller    string   `json:"seller,omitempty"`
	Available bool     `json:"available"`
	Error     string   `json:"error,omitempty"`
}

// Acceptable reports whether this result is good enough to stop trying
// further search terms.
func (r *ScrapeResult) Acceptable() bool {
	return r != nil && (r.URL != "" || r.Available)
}

// ErrorResult builds a failure result. The message is truncated so oversized
// driver/network errors do not blow up storage columns.
func ErrorResult(msg string) *ScrapeResult {
	return &ScrapeResult{Available: false, Error: TruncateError(msg)}
}

// NotFoundResult builds a clean miss.
func NotFoundResult() *ScrapeResult {
	return &ScrapeResult{Available: false}
}

const maxErrorLen = 100

// TruncateError bounds an error message for storage and display. The limit is
// in runes, not bytes: messages carry Portuguese text, and cutting inside a
// multi-byte character would leave invalid UTF-8.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) > maxErrorLen {
		return string(runes[:maxErrorLen])
	}
	return msg
}
