package worten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapNextData(payload string) string {
	return `<html><body><script id="__NEXT_DATA__" type="application/json">` + payload + `</script></body></html>`
}

func TestExtractPageDataProductPage(t *testing.T) {
	html := wrapNextData(`{
		"props": {"pageProps": {"product": {
			"name": "Widget",
			"slug": "/p/widget-1",
			"price": {"current": "49.90"},
			"seller": {"name": "ACME"},
			"available": true
		}}}
	}`)

	result := ExtractPageData(html)
	require.NotNil(t, result)
	assert.Equal(t, "Widget", result.Name)
	assert.Equal(t, BaseURL+"/p/widget-1", result.URL)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 49.90, *result.Price, 0.001)
	assert.Equal(t, "ACME", result.Seller)
	assert.True(t, result.Available)
	assert.Empty(t, result.Error)
}

func TestExtractPageDataSearchResults(t *testing.T) {
	html := wrapNextData(`{
		"props": {"pageProps": {"searchData": {"products": [
			{"title": "Primeiro", "url": "https://www.worten.pt/produtos/primeiro-123", "currentPrice": 19.99},
			{"title": "Segundo", "url": "/produtos/segundo-456", "currentPrice": 5}
		]}}}
	}`)

	result := ExtractPageData(html)
	require.NotNil(t, result)
	assert.Equal(t, "Primeiro", result.Name, "first listing wins")
	assert.Equal(t, "https://www.worten.pt/produtos/primeiro-123", result.URL)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 19.99, *result.Price, 0.001)
	assert.Equal(t, DefaultSeller, result.Seller)
	assert.True(t, result.Available)
}

func TestExtractPageDataPriceFieldOrder(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		expected float64
	}{
		{"Nested price.value first", `{"name":"X","price":{"value":10,"current":20},"currentPrice":30}`, 10},
		{"Nested price.current", `{"name":"X","price":{"current":20},"salePrice":30}`, 20},
		{"Nested prices.current", `{"name":"X","prices":{"current":"15,50"},"price":30}`, 15.50},
		{"Flat currentPrice", `{"name":"X","currentPrice":30,"salePrice":40}`, 30},
		{"Flat salePrice", `{"name":"X","salePrice":40,"price":50}`, 40},
		{"Flat price last", `{"name":"X","price":50}`, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := wrapNextData(`{"props":{"pageProps":{"product":` + tt.product + `}}}`)
			result := ExtractPageData(html)
			require.NotNil(t, result)
			require.NotNil(t, result.Price)
			assert.InDelta(t, tt.expected, *result.Price, 0.001)
		})
	}
}

func TestExtractPageDataAvailability(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		available bool
	}{
		{"Flags absent default to in stock", `{"name":"X","price":{"current":9.9}}`, true},
		{"Explicitly out of stock", `{"name":"X","price":{"current":9.9},"available":false,"inStock":false}`, false},
		{"One flag still in stock", `{"name":"X","price":{"current":9.9},"available":false,"inStock":true}`, true},
		{"No price is never available", `{"name":"X","available":true}`, false},
		{"Zero price treated as absent", `{"name":"X","price":{"current":0}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := wrapNextData(`{"props":{"pageProps":{"product":` + tt.product + `}}}`)
			result := ExtractPageData(html)
			require.NotNil(t, result)
			assert.Equal(t, tt.available, result.Available)
		})
	}
}

func TestExtractPageDataMissingOrBroken(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		assert.Nil(t, ExtractPageData(""))
	})

	t.Run("No payload marker", func(t *testing.T) {
		assert.Nil(t, ExtractPageData("<html><body><p>regular page</p></body></html>"))
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		assert.Nil(t, ExtractPageData(wrapNextData(`{"props": {broken`)))
	})

	t.Run("Payload without product data", func(t *testing.T) {
		assert.Nil(t, ExtractPageData(wrapNextData(`{"props":{"pageProps":{"other":1}}}`)))
	})

	t.Run("Product node is not an object", func(t *testing.T) {
		result := ExtractPageData(wrapNextData(`{"props":{"pageProps":{"product":"oops"}}}`))
		require.NotNil(t, result)
		assert.NotEmpty(t, result.Error)
		assert.False(t, result.Available, "error result must never be available")
	})
}
