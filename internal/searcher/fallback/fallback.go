// Package fallback recovers exact-label matches when vector ranking finds
// nothing: the normalized query is looked up as a substring of each row's
// normalized manifestation label.
package fallback

import (
	"strings"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/indexer/normalizer"
)

// Matcher holds the normalized manifestation label of every row.
type Matcher struct {
	labels []string
}

// New normalizes every manifestation label once with the same pipeline the
// queries go through.
func New(c *corpus.Corpus, normalize normalizer.Func) *Matcher {
	if normalize == nil {
		normalize = normalizer.Normalize
	}
	labels := make([]string, c.Len())
	for i := range labels {
		labels[i] = normalize(c.Entry(i).Manifestation)
	}
	return &Matcher{labels: labels}
}

// Match returns, in row order, the rows whose label contains query. Empty
// labels never match and an empty query matches nothing.
func (m *Matcher) Match(query string) []int {
	rows := make([]int, 0)
	if query == "" {
		return rows
	}
	for row, label := range m.labels {
		if label != "" && strings.Contains(label, query) {
			rows = append(rows, row)
		}
	}
	return rows
}
