package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestAcceptable(t *testing.T) {
	price := 19.99

	tests := []struct {
		name   string
		result *ScrapeResult
		want   bool
	}{
		{"nil result", nil, false},
		{"url hit", &ScrapeResult{URL: "https://www.worten.pt/produtos/x-123"}, true},
		{"available without url", &ScrapeResult{Available: true, Price: &price}, true},
		{"clean miss", NotFoundResult(), false},
		{"failure", ErrorResult("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Acceptable())
		})
	}
}

func TestTruncateErrorShortMessage(t *testing.T) {
	assert.Equal(t, "timeout", TruncateError("timeout"))
	assert.Equal(t, "", TruncateError(""))
}

func TestTruncateErrorCountsRunes(t *testing.T) {
	// Accented characters are two bytes each; a byte-based cut at the limit
	// would split one in half.
	msg := strings.Repeat("ã", 99) + "ésobra"

	got := TruncateError(msg)

	assert.True(t, utf8.ValidString(got), "truncation must not produce invalid UTF-8")
	assert.Equal(t, 100, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("ã", 99)+"é", got)
}

func TestErrorResultTruncates(t *testing.T) {
	r := ErrorResult(strings.Repeat("página indisponível ", 20))

	assert.False(t, r.Available)
	assert.True(t, utf8.ValidString(r.Error))
	assert.Equal(t, 100, utf8.RuneCountInString(r.Error))
}
