package worten

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

// ExtractSearchHTML pulls the first product card out of static markup. No
// script ran, so only the server-rendered subset of the page exists; the
// selector tables reflect that.
func ExtractSearchHTML(html string) *models.ScrapeResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ErrorResult("failed to parse static markup: " + err.Error())
	}

	var card *goquery.Selection
	for _, selector := range staticCardSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			card = sel
			break
		}
	}
	if card == nil {
		return &models.ScrapeResult{Available: false, Error: "no product element in static markup"}
	}

	url := ""
	for _, selector := range staticLinkSelectors {
		link := card.Find(selector).First()
		if link.Length() == 0 {
			continue
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			continue
		}
		// The generic anchor fallback must still point at a product page.
		if selector == "a" && !IsProductPageURL(href) {
			continue
		}
		url = AbsoluteURL(href)
		break
	}

	name := ""
	for _, selector := range staticNameSelectors {
		text := strings.TrimSpace(card.Find(selector).First().Text())
		if text != "" {
			name = text
			break
		}
	}

	var price *float64
	for _, selector := range staticPriceSelectors {
		elem := card.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		if p := ParsePrice(elem.Text()); p != nil {
			price = p
			break
		}
	}

	seller := DefaultSeller
	for _, selector := range staticSellerSelectors {
		text := strings.TrimSpace(card.Find(selector).First().Text())
		if text != "" {
			seller = CleanSeller(text)
			break
		}
	}

	return &models.ScrapeResult{
		Name:      name,
		URL:       url,
		Price:     price,
		Seller:    seller,
		Available: price != nil,
	}
}

// ExtractProductPageHTML handles a static fetch that redirected straight to
// a product page. The embedded JSON is the reliable source; markup fallbacks
// cover pages that ship without it.
func ExtractProductPageHTML(html, knownURL string) *models.ScrapeResult {
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

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ErrorResult("failed to parse static markup: " + err.Error())
	}

	name := ""
	for _, selector := range productTitleSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			name = text
			break
		}
	}

	var price *float64
	for _, selector := range productPriceSelectors {
		elem := doc.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		if p := ParsePrice(elem.Text()); p != nil {
			price = p
			break
		}
	}

	seller := DefaultSeller
	for _, selector := range productSellerSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			seller = CleanSeller(text)
			break
		}
	}

	return &models.ScrapeResult{
		Name:      name,
		URL:       knownURL,
		Price:     price,
		Seller:    seller,
		Available: price != nil,
	}
}

// CleanSeller strips the "Vendido por X" marketplace prefix and falls back
// to Worten itself when nothing sensible remains.
func CleanSeller(text string) string {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), sellerPrefix))
	if text == "" {
		return DefaultSeller
	}
	return text
}
