package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
)

// compositeRe matches "DD/MM/YYYY <document> <n1> <n2>", the first logical
// field of the electric history table.
var compositeRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d{4,}-\d+)\s+(\d+)\s+(\d+)$`)

// candidate is one way of reading the composite field from physical columns.
type candidate struct {
	columns []int
	values  []string
	score   int
}

// bestComposite scores every single column plus the 0+1 and 0+1+2
// concatenations by how many rows match compositeRe. Ties go to the
// candidate that consumes fewer columns, then to the earlier one.
func bestComposite(data [][]string, width int) candidate {
	var candidates []candidate
	for c := 0; c < width; c++ {
		candidates = append(candidates, newCandidate(data, c))
	}
	if width >= 2 {
		candidates = append(candidates, newCandidate(data, 0, 1))
	}
	if width >= 3 {
		candidates = append(candidates, newCandidate(data, 0, 1, 2))
	}
	if len(candidates) == 0 {
		return candidate{values: make([]string, len(data))}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return len(candidates[i].columns) < len(candidates[j].columns)
	})
	return candidates[0]
}

func newCandidate(data [][]string, columns ...int) candidate {
	c := candidate{columns: columns, values: make([]string, len(data))}
	for r, row := range data {
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			if col < len(row) {
				parts = append(parts, row[col])
			}
		}
		c.values[r] = normalizer.CollapseSpaces(strings.Join(parts, " "))
		if compositeRe.MatchString(c.values[r]) {
			c.score++
		}
	}
	return c
}

// compositeFields is the decomposition of one composite value.
type compositeFields struct {
	Date            string
	Document        string
	NumberReference string
}

// decompose splits every value with compositeRe. When no value matches at
// all, it falls back to a positional split into at most four parts.
func decompose(values []string) []compositeFields {
	out := make([]compositeFields, len(values))
	matched := false
	for i, v := range values {
		m := compositeRe.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		matched = true
		out[i] = compositeFields{
			Date:            m[1],
			Document:        m[2],
			NumberReference: strings.TrimSpace(m[3] + " " + m[4]),
		}
	}
	if matched {
		return out
	}

	for i, v := range values {
		parts := splitN(v, 4)
		out[i] = compositeFields{
			Date:            parts[0],
			Document:        parts[1],
			NumberReference: strings.TrimSpace(parts[2] + " " + parts[3]),
		}
	}
	return out
}

// splitN splits on whitespace into exactly n slots; the last keeps the rest.
func splitN(s string, n int) []string {
	out := make([]string, n)
	fields := strings.Fields(s)
	for i := 0; i < n && i < len(fields); i++ {
		if i == n-1 {
			out[i] = strings.Join(fields[i:], " ")
			break
		}
		out[i] = fields[i]
	}
	return out
}
