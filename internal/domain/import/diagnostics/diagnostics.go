// Package diagnostics explains why a document does or does not yield a
// billing table: which tables were read, whether the keyword table was
// located, and near misses for keywords that never appear.
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

const (
	previewRows      = 3
	previewWidth     = 120
	maxNearMisses    = 3
	minNearMissScore = 70
)

// TableReport is the shape and first rows of one table.
type TableReport struct {
	Index   int      `json:"index"`
	Page    int      `json:"page"`
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Preview []string `json:"preview"`
}

// KeywordReport tells where a keyword was found, or what came close.
type KeywordReport struct {
	Keyword    string   `json:"keyword"`
	Table      int      `json:"table"` // 1-based, 0 when not found
	NearMisses []string `json:"near_misses,omitempty"`
}

// Found reports whether the keyword appears in some table.
func (k KeywordReport) Found() bool { return k.Table > 0 }

// Report is the outcome for one document.
type Report struct {
	Path     string          `json:"path"`
	Tables   []TableReport   `json:"tables"`
	Located  bool            `json:"located"`
	Shape    [2]int          `json:"shape"`
	Keywords []KeywordReport `json:"keywords"`
	Error    string          `json:"error,omitempty"`
}

// Diagnoser inspects documents through a table source.
type Diagnoser struct {
	source parser.TableSource
	opts   parser.LocateOptions
}

// New creates a Diagnoser that locates with opts.
func New(source parser.TableSource, opts parser.LocateOptions) *Diagnoser {
	return &Diagnoser{source: source, opts: opts}
}

// Diagnose loads path and reports on every table and keyword. Load errors
// are recorded in the report rather than returned.
func (d *Diagnoser) Diagnose(ctx context.Context, path string, keywords []string) *Report {
	r := &Report{Path: path}

	tables, err := d.source.LoadTables(ctx, path)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	for i, t := range tables {
		r.Tables = append(r.Tables, TableReport{
			Index:   i + 1,
			Page:    t.Page,
			Rows:    t.NumRows(),
			Columns: t.Width(),
			Preview: preview(t),
		})
	}

	if target := d.source.LocateTable(tables, keywords, d.opts); target != nil {
		r.Located = true
		r.Shape = [2]int{target.NumRows(), target.Width()}
		for _, kw := range keywords {
			r.Keywords = append(r.Keywords, KeywordReport{Keyword: kw, Table: indexOf(tables, target) + 1})
		}
		return r
	}

	for _, kw := range keywords {
		r.Keywords = append(r.Keywords, findKeyword(tables, kw))
	}
	return r
}

func preview(t *parser.Table) []string {
	n := t.NumRows()
	if n > previewRows {
		n = previewRows
	}
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line := strings.Join(t.Rows[i], " | ")
		if len(line) > previewWidth {
			line = line[:previewWidth] + "..."
		}
		lines = append(lines, line)
	}
	return lines
}

func indexOf(tables []*parser.Table, target *parser.Table) int {
	for i, t := range tables {
		if t == target {
			return i
		}
	}
	return -1
}

// findKeyword scans every row of every table for kw, ignoring case and
// accents. When absent it collects the words scoring closest to kw.
func findKeyword(tables []*parser.Table, kw string) KeywordReport {
	report := KeywordReport{Keyword: kw}
	folded := normalizer.Fold(kw)

	words := make(map[string]struct{})
	for i, t := range tables {
		for _, row := range t.Grid() {
			text := strings.Join(row, " ")
			if strings.Contains(normalizer.Fold(text), folded) {
				report.Table = i + 1
				return report
			}
			for _, w := range strings.Fields(text) {
				words[w] = struct{}{}
			}
		}
	}

	type candidate struct {
		word  string
		score int
	}
	var candidates []candidate
	for w := range words {
		if s := similarity(folded, normalizer.Fold(w)); s >= minNearMissScore {
			candidates = append(candidates, candidate{w, s})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})
	for i := 0; i < len(candidates) && i < maxNearMisses; i++ {
		report.NearMisses = append(report.NearMisses, candidates[i].word)
	}
	return report
}

// similarity scores two folded strings from 0 to 100 using edit distance,
// or a subsequence match when that scores higher.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	score := 100 * (maxLen - fuzzy.LevenshteinDistance(a, b)) / maxLen
	if fuzzy.Match(a, b) {
		// every rune of a appears in order in b
		if sub := 100 * len(a) / len(b); sub > score {
			score = sub
		}
	}
	return score
}

// WriteText prints the report the way the diagnose command shows it.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "%s\n", r.Path)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s\n", r.Error)
		return
	}

	fmt.Fprintf(w, "%d tables\n", len(r.Tables))
	for _, t := range r.Tables {
		fmt.Fprintf(w, "\n  table %d (page %d): %d rows x %d columns\n", t.Index, t.Page, t.Rows, t.Columns)
		for i, line := range t.Preview {
			fmt.Fprintf(w, "    row %d: %s\n", i, line)
		}
	}

	kws := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		kws = append(kws, k.Keyword)
	}
	fmt.Fprintf(w, "\nlocating table with keywords: %s\n", strings.Join(kws, ", "))
	if r.Located {
		fmt.Fprintf(w, "  found: %d rows x %d columns\n", r.Shape[0], r.Shape[1])
		return
	}

	fmt.Fprintln(w, "  not found")
	for _, k := range r.Keywords {
		switch {
		case k.Found():
			fmt.Fprintf(w, "    %q found in table %d\n", k.Keyword, k.Table)
		case len(k.NearMisses) > 0:
			fmt.Fprintf(w, "    %q not found, closest: %s\n", k.Keyword, strings.Join(k.NearMisses, ", "))
		default:
			fmt.Fprintf(w, "    %q not found in any table\n", k.Keyword)
		}
	}
}
