package normalizer

import (
	"regexp"
)

// HeaderPattern maps header keys matching Pattern to a canonical column name.
// Patterns are matched against LettersKey of the raw header.
type HeaderPattern struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// HeaderNormalizer renames raw invoice headers to canonical column names.
type HeaderNormalizer struct {
	patterns []HeaderPattern
}

// NewHeaderNormalizer creates a normalizer with the invoice header patterns.
func NewHeaderNormalizer() *HeaderNormalizer {
	return &HeaderNormalizer{
		patterns: defaultHeaderPatterns(),
	}
}

// Canonical returns the canonical name for raw, or raw itself when no
// pattern matches.
func (n *HeaderNormalizer) Canonical(raw string) string {
	key := LettersKey(raw)
	for _, p := range n.patterns {
		if p.Pattern.MatchString(key) {
			return p.Canonical
		}
	}
	return raw
}

// Canonical column names produced by the extractors.
const (
	ColumnReference = "Reference"
	ColumnDueDate   = "Due Date"
	ColumnTotalDue  = "Total Due (R$)"
)

func defaultHeaderPatterns() []HeaderPattern {
	return []HeaderPattern{
		{regexp.MustCompile(`^(referencia|reference)$`), ColumnReference},
		{regexp.MustCompile(`^(vencimento|duedate)$`), ColumnDueDate},
		{regexp.MustCompile(`^(totalapagar|totaldue)(r|rs)?$`), ColumnTotalDue},
	}
}
