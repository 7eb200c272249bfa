package fallback

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/indexer/normalizer"
)

const table = `manifestation,standard,section,excerpt,recommendations,related_queries
Fissura em viga,NBR 6118,17.4,esforço cortante excessivo nos apoios,reforçar estribos,trinca
Infiltração,NBR 9575,5.1,lajes de cobertura sem proteção,impermeabilizar,umidade
,NBR 0,0,linha sem rótulo alguma,nada,
Fissura em laje,NBR 6118,13.3,flechas excessivas,escorar,trinca laje
`

func loadCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load(context.Background(),
		corpus.NewCSVReader("fallback.csv", strings.NewReader(table)),
		corpus.LoadOptions{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))},
	)
	require.NoError(t, err)
	return c
}

func TestMatchPreservesRowOrder(t *testing.T) {
	m := New(loadCorpus(t), normalizer.Normalize)
	assert.Equal(t, []int{0, 3}, m.Match(normalizer.Normalize("FISSURA")))
}

func TestMatchIgnoresAccentsAndCase(t *testing.T) {
	m := New(loadCorpus(t), normalizer.Normalize)
	assert.Equal(t, []int{1}, m.Match(normalizer.Normalize("infiltraçao")))
}

func TestMatchFullLabel(t *testing.T) {
	m := New(loadCorpus(t), nil)
	assert.Equal(t, []int{3}, m.Match(normalizer.Normalize("Fissura em laje")))
}

func TestMatchNothing(t *testing.T) {
	m := New(loadCorpus(t), normalizer.Normalize)
	assert.Empty(t, m.Match("corrosao"))
	assert.Empty(t, m.Match(""))
}

func TestMatchSkipsMissingLabels(t *testing.T) {
	m := New(loadCorpus(t), normalizer.Normalize)
	for _, row := range m.Match("a") {
		assert.NotEqual(t, 2, row)
	}
}
