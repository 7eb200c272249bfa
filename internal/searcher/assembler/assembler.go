// Package assembler shapes matched rows into the records returned to
// callers.
package assembler

import (
	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/searcher/ranker"
)

// Record carries the six reference fields verbatim plus where the row sits
// in the corpus and how it scored.
type Record struct {
	corpus.ReferenceEntry
	Row   int     `json:"row"`
	Score float64 `json:"score"`
}

// Assemble returns one Record per hit in hit order. A positive limit caps the
// number of records; zero means no cap. No hits yield an empty, non-nil
// slice.
func Assemble(hits []ranker.ScoredDoc, c *corpus.Corpus, limit int) []Record {
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	records := make([]Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, Record{
			ReferenceEntry: c.Entry(h.Row),
			Row:            h.Row,
			Score:          h.Score,
		})
	}
	return records
}
