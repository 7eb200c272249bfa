// Package ranker scores rows against a projected query by cosine similarity
// and keeps those above the similarity threshold.
package ranker

import (
	"math"
	"sort"

	"github.com/normsearch/normsearch/internal/indexer/index"
)

// ScoredDoc is one row with its cosine score.
type ScoredDoc struct {
	Row   int     `json:"row"`
	Score float64 `json:"score"`
}

// Scores returns the cosine similarity between q and every row of space,
// indexed by row. Stored row vectors and projections are unit length, so the
// accumulated dot product over the query's postings is the cosine.
func Scores(q index.SparseVector, space *index.VectorSpace) []float64 {
	scores := make([]float64, space.Len())
	if len(q) == 0 {
		return scores
	}
	for _, c := range q {
		for _, p := range space.Postings(c.Term) {
			scores[p.Doc] += c.Weight * p.Weight
		}
	}
	for i, s := range scores {
		scores[i] = math.Min(1, math.Max(0, s))
	}
	return scores
}

// Filter keeps rows scoring strictly above threshold, ordered by descending
// score with ties in ascending row order.
func Filter(scores []float64, threshold float64) []ScoredDoc {
	result := make([]ScoredDoc, 0)
	for row, s := range scores {
		if s > threshold {
			result = append(result, ScoredDoc{Row: row, Score: s})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Row < result[j].Row
	})
	return result
}

// Rank scores q against space and applies the relevance threshold.
func Rank(q index.SparseVector, space *index.VectorSpace, threshold float64) []ScoredDoc {
	return Filter(Scores(q, space), threshold)
}
