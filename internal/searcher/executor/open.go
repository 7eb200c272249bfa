package executor

import (
	"context"
	"fmt"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/indexer/index"
	"github.com/normsearch/normsearch/internal/indexer/normalizer"
	"github.com/normsearch/normsearch/pkg/config"
)

// Open loads the corpus from src and fits the vector space once. Every
// failure is fatal for the process and carries apperrors.ErrDataLoad when
// it comes from the data.
func Open(ctx context.Context, src corpus.Source, corpusCfg config.CorpusConfig, cfg config.RetrievalConfig) (*Executor, error) {
	keepShort := cfg.Granularity == config.GranularityChar
	normalize := normalizer.For(keepShort)

	c, err := corpus.Load(ctx, src, corpus.LoadOptions{
		SearchFields: corpusCfg.SearchFields,
		Normalize:    normalize,
	})
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	space, err := index.Build(c, index.Options{
		Granularity: index.Granularity(cfg.Granularity),
		MinFragment: cfg.MinFragment,
		MaxFragment: cfg.MaxFragment,
	})
	if err != nil {
		return nil, fmt.Errorf("building vector space: %w", err)
	}
	return New(c, space, normalize, OptionsFrom(cfg)), nil
}
