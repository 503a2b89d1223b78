package parser

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
)

// LocateOptions controls keyword matching.
type LocateOptions struct {
	// Normalize folds accents and case on both sides before matching.
	Normalize bool
	// RequireAll needs every keyword in one row; otherwise any keyword will do.
	RequireAll bool
}

// DefaultLocateOptions matches all keywords, ignoring accents and case.
var DefaultLocateOptions = LocateOptions{Normalize: true, RequireAll: true}

// Locate returns the first table that has a data row containing the keywords,
// scanning tables and rows in order. It returns nil when no table qualifies.
func Locate(tables []*Table, keywords []string, opts LocateOptions) *Table {
	m := newKeywordMatcher(keywords, opts.Normalize)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for i := range t.Rows {
			text := t.RowText(i)
			if opts.Normalize {
				text = normalizer.Fold(text)
			}
			if m.matches(text, opts.RequireAll) {
				return t
			}
		}
	}
	return nil
}

// keywordMatcher scans a row once for every keyword with Aho-Corasick.
// A matcher is not safe for concurrent use.
type keywordMatcher struct {
	terms []string
	ac    *ahocorasick.Matcher
}

func newKeywordMatcher(keywords []string, fold bool) *keywordMatcher {
	seen := make(map[string]struct{}, len(keywords))
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if fold {
			kw = normalizer.Fold(kw)
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		terms = append(terms, kw)
	}

	m := &keywordMatcher{terms: terms}
	if len(terms) > 0 {
		m.ac = ahocorasick.NewStringMatcher(terms)
	}
	return m
}

func (m *keywordMatcher) matches(text string, all bool) bool {
	if len(m.terms) == 0 {
		// all() of nothing holds, any() of nothing does not.
		return all
	}

	hits := m.ac.Match([]byte(text))
	if !all {
		return len(hits) > 0 || m.containsAny(text)
	}
	if len(hits) == len(m.terms) {
		return true
	}

	found := make([]bool, len(m.terms))
	for _, h := range hits {
		found[h] = true
	}
	for i, term := range m.terms {
		// Overlapping dictionary entries can be reported once only.
		if !found[i] && !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

func (m *keywordMatcher) containsAny(text string) bool {
	for _, term := range m.terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
