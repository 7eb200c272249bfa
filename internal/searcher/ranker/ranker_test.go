package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch/internal/indexer/index"
)

type texts []string

func (t texts) Len() int                    { return len(t) }
func (t texts) SearchableText(i int) string { return t[i] }

func build(t *testing.T, docs ...string) *index.VectorSpace {
	t.Helper()
	s, err := index.Build(texts(docs), index.Options{Granularity: index.Word})
	require.NoError(t, err)
	return s
}

func TestScoresMatchCosine(t *testing.T) {
	s := build(t, "fissura viga concreto", "infiltracao laje", "fissura laje fissura")
	q := s.Project("fissura laje")

	scores := Scores(q, s)
	require.Len(t, scores, 3)
	for row, got := range scores {
		assert.InDelta(t, index.Cosine(q, s.Document(row)), got, 1e-12, "row %d", row)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	s := build(t, "fissura viga concreto", "infiltracao laje", "fissura laje fissura")
	ranked := Rank(s.Project("fissura laje"), s, 0)

	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.Equal(t, 2, ranked[0].Row)
}

func TestRankTiesKeepRowOrder(t *testing.T) {
	s := build(t, "mancha parede", "fissura viga", "mancha parede", "mancha parede")
	ranked := Rank(s.Project("mancha"), s, 0)

	require.Len(t, ranked, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{ranked[0].Row, ranked[1].Row, ranked[2].Row})
	assert.Equal(t, ranked[0].Score, ranked[2].Score)
}

func TestRankThresholdIsStrict(t *testing.T) {
	s := build(t, "fissura viga concreto")
	score := 1 / math.Sqrt(3)

	assert.Len(t, Rank(s.Project("fissura"), s, 0.1), 1)
	assert.Empty(t, Filter([]float64{score}, score), "a score equal to the threshold is dropped")
	assert.Empty(t, Rank(s.Project("fissura"), s, 0.99))
}

func TestRankNoOverlap(t *testing.T) {
	s := build(t, "fissura viga concreto")
	q := s.Project("infiltracao teto")
	assert.Empty(t, q)
	assert.Equal(t, []float64{0}, Scores(q, s))
	assert.Empty(t, Rank(q, s, 0.1))
	assert.NotNil(t, Rank(q, s, 0.1))
}

func TestFilterNeverReturnsAtOrBelowThreshold(t *testing.T) {
	scores := []float64{0.3, 0.1, 0.25, 0.0999, 0.5, 0.25}
	ranked := Filter(scores, 0.1)

	require.Len(t, ranked, 4)
	for _, r := range ranked {
		assert.Greater(t, r.Score, 0.1)
	}
	assert.Equal(t, []ScoredDoc{
		{Row: 4, Score: 0.5},
		{Row: 0, Score: 0.3},
		{Row: 2, Score: 0.25},
		{Row: 5, Score: 0.25},
	}, ranked)
}
