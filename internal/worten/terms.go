package worten

import (
	"strings"
)

// Short connective words in pt-PT that add nothing to a search query.
var stopWords = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"e": {}, "ou": {}, "com": {}, "para": {}, "em": {},
	"um": {}, "uma": {},
}

const maxSignificantTokens = 4

// PlanTerms derives the ordered search terms to try for a product name. The
// first candidate is the most specific one (up to four significant tokens);
// short names additionally fall back to the full name, which covers products
// whose name loses meaning when trimmed. Returns an empty slice for
// empty/whitespace input.
func PlanTerms(productName string) []string {
	words := strings.Fields(productName)
	if len(words) == 0 {
		return nil
	}

	var significant []string
	for _, w := range words {
		if _, skip := stopWords[strings.ToLower(w)]; skip {
			continue
		}
		if len(w) <= 2 {
			continue
		}
		significant = append(significant, w)
	}

	var terms []string
	if len(significant) > 0 {
		n := len(significant)
		if n > maxSignificantTokens {
			n = maxSignificantTokens
		}
		terms = append(terms, strings.Join(significant[:n], " "))
	}
	if len(words) <= 5 {
		terms = append(terms, productName)
	}

	// Nothing survived filtering and the name is too long for the short-name
	// rule: searching the full name beats searching nothing.
	if len(terms) == 0 {
		terms = append(terms, productName)
	}

	return terms
}
