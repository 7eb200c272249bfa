package assembler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/searcher/ranker"
)

const table = `manifestation,standard,section,excerpt,recommendations,related_queries
fissura,NBR 1,2,fissura em viga de concreto,reforcar,trinca
mancha,NBR 2,3,mancha de bolor,ventilar,mofo
corrosao,NBR 3,4,corrosao de armadura,recompor,ferrugem
eflorescencia,NBR 4,5,eflorescencia em alvenaria,limpar,salitre
`

func loadCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load(context.Background(),
		corpus.NewCSVReader("assembler.csv", strings.NewReader(table)),
		corpus.LoadOptions{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))},
	)
	require.NoError(t, err)
	return c
}

func TestAssembleVerbatim(t *testing.T) {
	c := loadCorpus(t)
	records := Assemble([]ranker.ScoredDoc{{Row: 2, Score: 0.8}, {Row: 0, Score: 0.4}}, c, 0)

	require.Len(t, records, 2)
	assert.Equal(t, c.Entry(2), records[0].ReferenceEntry)
	assert.Equal(t, 2, records[0].Row)
	assert.InDelta(t, 0.8, records[0].Score, 1e-12)
	assert.Equal(t, "fissura", records[1].Manifestation)
}

func TestAssembleCap(t *testing.T) {
	c := loadCorpus(t)
	hits := []ranker.ScoredDoc{{Row: 3}, {Row: 2}, {Row: 1}, {Row: 0}}

	records := Assemble(hits, c, 3)
	require.Len(t, records, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{records[0].Row, records[1].Row, records[2].Row})
	assert.Len(t, Assemble(hits, c, 10), 4)
}

func TestAssembleEmpty(t *testing.T) {
	records := Assemble(nil, loadCorpus(t), 3)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestRecordJSONShape(t *testing.T) {
	c := loadCorpus(t)
	records := Assemble([]ranker.ScoredDoc{{Row: 0, Score: 0.5}}, c, 0)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"manifestation", "standard", "section", "excerpt", "recommendations", "related_queries", "row", "score"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "trinca", fields["related_queries"])
}
