package worten

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRe = regexp.MustCompile(`[€\s]|EUR`)
	numberRe   = regexp.MustCompile(`(-?\d+\.?\d*)`)
)

// ParsePrice extracts a positive price from free-form text. Worten renders
// prices in pt-PT ("1.234,56€") but the embedded JSON sometimes carries plain
// "19.99", so both locales are accepted. Returns nil when no positive value
// can be extracted; it never panics.
func ParsePrice(text string) *float64 {
	if text == "" {
		return nil
	}

	cleaned := currencyRe.ReplaceAllString(text, "")

	// Both separators present: "." is the thousands separator, "," the
	// decimal one. Only "," present: it is the decimal separator.
	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	match := numberRe.FindString(cleaned)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value <= 0 {
		return nil
	}

	return &value
}
