package worten

import (
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

// ExtractSearchDOM pulls the first product card out of a live rendered page.
// Individual field misses are non-fatal; only a completely absent card fails
// the attempt.
func ExtractSearchDOM(page playwright.Page) *models.ScrapeResult {
	var card playwright.Locator
	for _, selector := range cardSelectors {
		loc := page.Locator(selector).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		card = loc
		break
	}
	if card == nil {
		return &models.ScrapeResult{Available: false, Error: "no product element in rendered output"}
	}

	url := ""
	for _, selector := range cardLinkSelectors {
		link := card.Locator(selector).First()
		count, err := link.Count()
		if err != nil || count == 0 {
			continue
		}
		href, err := link.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		if selector == "a" && !IsProductPageURL(href) {
			continue
		}
		url = AbsoluteURL(href)
		break
	}

	name := firstText(card, nameSelectors)

	var price *float64
	for _, selector := range priceSelectors {
		loc := card.Locator(selector).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.TextContent()
		if err != nil {
			continue
		}
		if p := ParsePrice(collapse(text)); p != nil {
			price = p
			break
		}
	}

	seller := DefaultSeller
	if text := firstText(card, sellerSelectors); text != "" {
		seller = CleanSeller(text)
	}

	return &models.ScrapeResult{
		Name:      name,
		URL:       url,
		Price:     price,
		Seller:    seller,
		Available: price != nil,
	}
}

// ExtractProductPageDOM handles the search box resolving straight to a
// product page. The embedded JSON is tried first (cheaper and stabler than
// rendered markup); element fallbacks cover pages shipping without it.
func ExtractProductPageDOM(page playwright.Page, knownURL string) *models.ScrapeResult {
	if html, err := page.Content(); err == nil {
		if result := ExtractPageData(html); result != nil && result.Name != "" {
			return &models.ScrapeResult{
				Name:      result.Name,
				URL:       knownURL,
				Price:     result.Price,
				Seller:    result.Seller,
				Available: result.Available,
				Error:     result.Error,
			}
		}
	}

	name := firstPageText(page, productTitleSelectors)

	var price *float64
	for _, selector := range productPriceSelectors {
		loc := page.Locator(selector).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.TextContent()
		if err != nil {
			continue
		}
		if p := ParsePrice(collapse(text)); p != nil {
			price = p
			break
		}
	}

	seller := DefaultSeller
	if text := firstPageText(page, productSellerSelectors); text != "" {
		seller = CleanSeller(text)
	}

	return &models.ScrapeResult{
		Name:      name,
		URL:       knownURL,
		Price:     price,
		Seller:    seller,
		Available: price != nil,
	}
}

func firstText(card playwright.Locator, selectors []string) string {
	for _, selector := range selectors {
		loc := card.Locator(selector).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.TextContent()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstPageText(page playwright.Page, selectors []string) string {
	for _, selector := range selectors {
		loc := page.Locator(selector).First()
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		text, err := loc.TextContent()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), "")
}
