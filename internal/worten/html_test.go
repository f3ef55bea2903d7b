package worten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultsHTML = `<html><body>
<div data-testid="product-card">
	<a href="/produtos/auscultadores-sony-wh1000-789">
		<h3>Auscultadores Sony WH-1000</h3>
	</a>
	<span class="product-price">279,99€</span>
	<span class="product-seller">Vendido por TechStore</span>
</div>
<div data-testid="product-card">
	<a href="/produtos/outro-produto-101">
		<h3>Outro Produto</h3>
	</a>
	<span class="product-price">9,99€</span>
</div>
</body></html>`

func TestExtractSearchHTML(t *testing.T) {
	result := ExtractSearchHTML(searchResultsHTML)
	require.NotNil(t, result)
	assert.Equal(t, "Auscultadores Sony WH-1000", result.Name)
	assert.Equal(t, BaseURL+"/produtos/auscultadores-sony-wh1000-789", result.URL)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 279.99, *result.Price, 0.001)
	assert.Equal(t, "TechStore", result.Seller)
	assert.True(t, result.Available)
}

func TestExtractSearchHTMLNoCard(t *testing.T) {
	result := ExtractSearchHTML("<html><body><p>banner only</p></body></html>")
	require.NotNil(t, result)
	assert.Equal(t, "no product element in static markup", result.Error)
	assert.False(t, result.Available)
	assert.False(t, result.Acceptable())
}

func TestExtractSearchHTMLCardWithoutPrice(t *testing.T) {
	html := `<html><body>
<div class="product-card">
	<a href="/produtos/esgotado-55"><h3>Produto Esgotado</h3></a>
</div>
</body></html>`

	result := ExtractSearchHTML(html)
	require.NotNil(t, result)
	assert.Equal(t, "Produto Esgotado", result.Name)
	assert.Equal(t, BaseURL+"/produtos/esgotado-55", result.URL)
	assert.Nil(t, result.Price)
	assert.False(t, result.Available)
	assert.True(t, result.Acceptable(), "a priced-out listing with a link is still a match")
}

func TestExtractSearchHTMLIgnoresNonProductAnchor(t *testing.T) {
	html := `<html><body>
<article>
	<a href="/campanhas/saldos">Saldos</a>
	<span class="price">10,00€</span>
</article>
</body></html>`

	result := ExtractSearchHTML(html)
	require.NotNil(t, result)
	assert.Empty(t, result.URL, "campaign links never count as product URLs")
}

func TestExtractProductPageHTMLPrefersEmbeddedData(t *testing.T) {
	html := wrapNextData(`{"props":{"pageProps":{"product":{
		"name":"Widget","slug":"/p/widget-1",
		"price":{"current":49.9},"seller":{"name":"ACME"}
	}}}}`) // no markup fallbacks needed

	result := ExtractProductPageHTML(html, "https://www.worten.pt/produtos/widget-777")
	require.NotNil(t, result)
	assert.Equal(t, "Widget", result.Name)
	assert.Equal(t, "https://www.worten.pt/produtos/widget-777", result.URL,
		"the visited URL wins over the payload slug")
	require.NotNil(t, result.Price)
	assert.InDelta(t, 49.9, *result.Price, 0.001)
	assert.Equal(t, "ACME", result.Seller)
	assert.True(t, result.Available)
}

func TestExtractProductPageHTMLMarkupFallback(t *testing.T) {
	html := `<html><body>
<h1>Micro-ondas Samsung MS23</h1>
<div class="product-price">129,99€</div>
<div class="product-seller">Vendido por Worten</div>
</body></html>`

	result := ExtractProductPageHTML(html, "https://www.worten.pt/produtos/micro-ondas-1")
	require.NotNil(t, result)
	assert.Equal(t, "Micro-ondas Samsung MS23", result.Name)
	assert.Equal(t, "https://www.worten.pt/produtos/micro-ondas-1", result.URL)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 129.99, *result.Price, 0.001)
	assert.Equal(t, DefaultSeller, result.Seller)
	assert.True(t, result.Available)
}

func TestCleanSeller(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Vendido por TechStore", "TechStore"},
		{"  Vendido por  Loja XYZ ", "Loja XYZ"},
		{"Worten", "Worten"},
		{"Vendido por ", DefaultSeller},
		{"", DefaultSeller},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanSeller(tt.input), "input %q", tt.input)
	}
}
