package worten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "Whitespace only",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "Short name keeps full fallback",
			input:    "Samsung Galaxy S24",
			expected: []string{"Samsung Galaxy S24", "Samsung Galaxy S24"},
		},
		{
			name:     "Stop words filtered from first candidate",
			input:    "Frigorífico de Embutir com Congelador",
			expected: []string{"Frigorífico Embutir Congelador", "Frigorífico de Embutir com Congelador"},
		},
		{
			name:  "Long name trimmed to four significant tokens",
			input: "Máquina Lavar Roupa Samsung Serie Cinco Ecobubble Branca",
			expected: []string{
				"Máquina Lavar Roupa Samsung",
			},
		},
		{
			name:     "All stop words falls back to full name",
			input:    "de da do",
			expected: []string{"de da do"},
		},
		{
			name:     "Short tokens filtered",
			input:    "TV LG OLED 55",
			expected: []string{"OLED", "TV LG OLED 55"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanTerms(tt.input))
		})
	}
}

func TestPlanTermsShortNameEndsWithOriginal(t *testing.T) {
	names := []string{
		"Aspirador Dyson V15",
		"Coluna JBL",
		"Ar Condicionado LG Dual Inverter",
	}
	for _, name := range names {
		terms := PlanTerms(name)
		assert.NotEmpty(t, terms)
		assert.Equal(t, name, terms[len(terms)-1], "last candidate must be the original name")
	}
}
