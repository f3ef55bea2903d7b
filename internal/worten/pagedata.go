package worten

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ysmood/gson"

	"github.com/duartefn/worten-price-scraper/internal/models"
)

// Worten is a Next.js app; every server-rendered page carries its data in a
// __NEXT_DATA__ script tag, which is far more stable than the markup around it.
var nextDataRe = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)

var (
	searchDataKeys = []string{"searchData", "initialData", "data"}
	collectionKeys = []string{"products", "items", "results"}
	productKeys    = []string{"product", "productData"}

	nestedPriceFields = [][2]string{
		{"price", "value"},
		{"price", "current"},
		{"prices", "current"},
	}
	flatPriceFields = []string{"currentPrice", "salePrice", "price"}
)

// ExtractPageData pulls a result out of the embedded JSON payload. Returns
// nil when the payload is absent or not valid JSON ("not present"), and a
// result with Error set when the payload is there but the product node is
// unusable ("found but unparsable").
func ExtractPageData(html string) *models.ScrapeResult {
	match := nextDataRe.FindStringSubmatch(html)
	if match == nil {
		return nil
	}

	payload := match[1]
	if !json.Valid([]byte(payload)) {
		return nil
	}

	props := gson.NewFrom(payload).Get("props").Get("pageProps")
	if props.Nil() {
		return nil
	}

	// Search results page: first listing of the first known collection.
	for _, key := range searchDataKeys {
		data := props.Get(key)
		if data.Nil() {
			continue
		}
		for _, collection := range collectionKeys {
			items := data.Get(collection)
			if items.Nil() {
				continue
			}
			arr := items.Arr()
			if len(arr) > 0 {
				return parseProductJSON(arr[0])
			}
		}
	}

	// Single product page.
	for _, key := range productKeys {
		item := props.Get(key)
		if !item.Nil() {
			return parseProductJSON(item)
		}
	}

	return nil
}

func parseProductJSON(item gson.JSON) *models.ScrapeResult {
	if _, ok := item.Val().(map[string]interface{}); !ok {
		return models.ErrorResult("malformed product payload")
	}

	name := jsonStr(item, "name")
	if name == "" {
		name = jsonStr(item, "title")
	}

	url := ""
	if slug := jsonStr(item, "slug"); slug != "" {
		url = AbsoluteURL(slug)
	} else if u := jsonStr(item, "url"); u != "" {
		url = AbsoluteURL(u)
	}

	price := priceFromJSON(item)

	seller := DefaultSeller
	if s := item.Get("seller").Get("name"); !s.Nil() {
		if v, ok := s.Val().(string); ok && v != "" {
			seller = v
		}
	}

	// Stock flags default to true when the payload omits them.
	available := price != nil && (flagOrTrue(item, "available") || flagOrTrue(item, "inStock"))

	return &models.ScrapeResult{
		Name:      name,
		URL:       url,
		Price:     price,
		Seller:    seller,
		Available: available,
	}
}

func priceFromJSON(item gson.JSON) *float64 {
	for _, field := range nestedPriceFields {
		nested := item.Get(field[0])
		if _, ok := nested.Val().(map[string]interface{}); !ok {
			continue
		}
		sub := nested.Get(field[1])
		if sub.Nil() {
			continue
		}
		if p := toPrice(sub.Val()); p != nil {
			return p
		}
	}

	for _, field := range flatPriceFields {
		value := item.Get(field)
		if value.Nil() {
			continue
		}
		if _, isMap := value.Val().(map[string]interface{}); isMap {
			continue
		}
		if p := toPrice(value.Val()); p != nil {
			return p
		}
	}

	return nil
}

// toPrice normalizes the leaf types the payload has been seen to use.
func toPrice(v interface{}) *float64 {
	switch value := v.(type) {
	case float64:
		if value > 0 {
			return &value
		}
	case int:
		if value > 0 {
			f := float64(value)
			return &f
		}
	case json.Number:
		if f, err := value.Float64(); err == nil && f > 0 {
			return &f
		}
	case string:
		trimmed := strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f > 0 {
			return &f
		}
		return ParsePrice(trimmed)
	}
	return nil
}

func jsonStr(item gson.JSON, key string) string {
	v := item.Get(key)
	if v.Nil() {
		return ""
	}
	s, _ := v.Val().(string)
	return s
}

// flagOrTrue reads a boolean flag that is considered true when missing or
// malformed. Tightening this default is a pending product question.
func flagOrTrue(item gson.JSON, key string) bool {
	v := item.Get(key)
	if v.Nil() {
		return true
	}
	if b, ok := v.Val().(bool); ok {
		return b
	}
	return true
}
