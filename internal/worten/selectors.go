package worten

import "strings"

// Worten site constants. The search endpoint sometimes 302s straight to a
// product page when the query is specific enough; both URL path markers below
// identify one.
const (
	BaseURL   = "https://www.worten.pt"
	SearchURL = BaseURL + "/search"

	DefaultSeller = "Worten"
	sellerPrefix  = "Vendido por "
)

// productPathMarkers identify a product-page URL, newest layout first.
var productPathMarkers = []string{"/produtos/", "/p/"}

// Selector tables, most specific first; extraction walks each list and the
// first selector that yields a usable value wins. Keeping them as data makes
// the inevitable markup churn a one-line diff and lets tests cover the tables
// apart from the traversal.
var (
	// Rendered (browser) mode.
	cardSelectors = []string{
		"article.product-card",
		".product-card",
		`[data-testid="product-card"]`,
		`article[itemtype*="Product"]`,
	}
	cardLinkSelectors = []string{
		`a[href*="/produtos/"]`,
		`a[href*="/p/"]`,
		"a",
	}
	nameSelectors = []string{
		".product-card__name-and-features",
		"h3",
		"h2",
		`[class*="name"]`,
	}
	priceSelectors = []string{
		".product-card__price",
		`[class*="price"]`,
		`[class*="Price"]`,
	}
	sellerSelectors = []string{
		".product-card__seller",
		`[class*="seller"]`,
	}

	// Static (no-render) mode: lazy-loaded classes never appear, so the lists
	// are the smaller set that static markup can actually contain.
	staticCardSelectors = []string{
		`[data-testid="product-card"]`,
		".product-card",
		"article",
	}
	staticLinkSelectors = []string{
		`a[href*="/p/"]`,
		`a[href*="/produtos/"]`,
		"a",
	}
	staticNameSelectors = []string{
		"h3",
		"h2",
		`[class*="name"]`,
	}
	staticPriceSelectors = []string{
		`[class*="price"]`,
		"span",
	}
	staticSellerSelectors = []string{
		`[class*="seller"]`,
	}

	// Product-page fallbacks, used only when the embedded JSON is missing.
	productTitleSelectors  = []string{"h1"}
	productPriceSelectors  = []string{`[class*="price"]`, `span[class*="Price"]`}
	productSellerSelectors = []string{`[class*="seller"]`}
)

// IsProductPageURL reports whether the (possibly redirected) URL points at a
// single product page rather than a results listing.
func IsProductPageURL(url string) bool {
	for _, marker := range productPathMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// AbsoluteURL resolves a slug or relative path against the site base.
func AbsoluteURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return BaseURL + href
}
