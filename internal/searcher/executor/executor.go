package executor

import (
	"context"
	"fmt"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/indexer/index"
	"github.com/normsearch/normsearch/internal/indexer/normalizer"
	"github.com/normsearch/normsearch/internal/searcher/assembler"
	"github.com/normsearch/normsearch/internal/searcher/fallback"
	"github.com/normsearch/normsearch/internal/searcher/ranker"
	"github.com/normsearch/normsearch/pkg/config"
	"github.com/normsearch/normsearch/pkg/logger"
	"github.com/normsearch/normsearch/pkg/tracing"
)

// Path names the pipeline stage that produced a result.
type Path string

const (
	// PathEmpty: the query normalized to nothing; no stage ran.
	PathEmpty Path = "empty"
	// PathVector: rows scored above the threshold.
	PathVector Path = "vector"
	// PathFallback: vector ranking found nothing; labels matched.
	PathFallback Path = "fallback"
	// PathExact: labels matched before vector ranking was tried.
	PathExact Path = "exact"
	// PathNone: every enabled stage ran and nothing matched.
	PathNone Path = "none"
)

// Options is the retrieval configuration surface.
type Options struct {
	Threshold       float64
	FallbackEnabled bool
	Order           string
	MaxResults      int
}

// OptionsFrom maps the retrieval config section onto Options.
func OptionsFrom(cfg config.RetrievalConfig) Options {
	return Options{
		Threshold:       cfg.Threshold,
		FallbackEnabled: cfg.FallbackEnabled,
		Order:           cfg.Order,
		MaxResults:      cfg.MaxResults,
	}
}

// SearchResult is the outcome of one query: the path taken and the records
// it produced.
type SearchResult struct {
	Query      string             `json:"query"`
	Normalized string             `json:"normalized_query"`
	Path       Path               `json:"path"`
	TotalHits  int                `json:"total_hits"`
	Results    []assembler.Record `json:"results"`
}

// Stats describes the loaded corpus and fitted space.
type Stats struct {
	Source         string  `json:"source"`
	Rows           int     `json:"rows"`
	DegradedRows   []int   `json:"degraded_rows"`
	VocabularySize int     `json:"vocabulary_size"`
	Granularity    string  `json:"granularity"`
	Threshold      float64 `json:"threshold"`
	Order          string  `json:"order"`
	Fallback       bool    `json:"fallback_enabled"`
	MaxResults     int     `json:"max_results"`
}

// Executor runs queries over an immutable corpus and vector space. It holds
// no mutable state and is safe for concurrent use.
type Executor struct {
	corpus    *corpus.Corpus
	space     *index.VectorSpace
	matcher   *fallback.Matcher
	normalize normalizer.Func
	opts      Options
}

// New wires an executor. normalize must be the pipeline the corpus was
// loaded with so queries and rows share one canonical form.
func New(c *corpus.Corpus, space *index.VectorSpace, normalize normalizer.Func, opts Options) *Executor {
	if normalize == nil {
		normalize = normalizer.Normalize
	}
	if opts.Order == "" {
		opts.Order = config.OrderVectorFirst
	}
	return &Executor{
		corpus:    c,
		space:     space,
		matcher:   fallback.New(c, normalize),
		normalize: normalize,
		opts:      opts,
	}
}

// Execute normalizes query and runs the configured stages. An empty result
// is a normal outcome, never an error; only a cancelled ctx fails.
func (e *Executor) Execute(ctx context.Context, query string) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	result := &SearchResult{
		Query:      query,
		Normalized: e.normalize(query),
		Path:       PathEmpty,
		Results:    []assembler.Record{},
	}
	if result.Normalized == "" {
		return result, nil
	}

	var scores []float64
	rowScores := func() []float64 {
		if scores == nil {
			_, span := tracing.StartChildSpan(ctx, "score")
			scores = ranker.Scores(e.space.Project(result.Normalized), e.space)
			span.End()
		}
		return scores
	}

	var hits []ranker.ScoredDoc
	result.Path = PathNone
	if e.opts.FallbackEnabled && e.opts.Order == config.OrderExactFirst {
		if hits = e.labelHits(ctx, result.Normalized, rowScores); len(hits) > 0 {
			result.Path = PathExact
		}
	}
	if len(hits) == 0 {
		if hits = ranker.Filter(rowScores(), e.opts.Threshold); len(hits) > 0 {
			result.Path = PathVector
		}
	}
	if len(hits) == 0 && e.opts.FallbackEnabled && e.opts.Order != config.OrderExactFirst {
		if hits = e.labelHits(ctx, result.Normalized, rowScores); len(hits) > 0 {
			result.Path = PathFallback
		}
	}

	result.TotalHits = len(hits)
	result.Results = assembler.Assemble(hits, e.corpus, e.opts.MaxResults)
	if span := tracing.SpanFromContext(ctx); span != nil {
		span.SetAttr("path", string(result.Path))
		span.SetAttr("hits", result.TotalHits)
	}
	logger.FromContext(ctx).Debug("query executed",
		"component", "query-executor",
		"normalized", result.Normalized,
		"path", result.Path,
		"hits", result.TotalHits,
		"returned", len(result.Results),
	)
	return result, nil
}

// labelHits runs the substring matcher and attaches each row's vector score,
// which may be at or below the threshold.
func (e *Executor) labelHits(ctx context.Context, normalized string, rowScores func() []float64) []ranker.ScoredDoc {
	_, span := tracing.StartChildSpan(ctx, "labels")
	rows := e.matcher.Match(normalized)
	span.SetAttr("matched", len(rows))
	span.End()
	if len(rows) == 0 {
		return nil
	}
	scores := rowScores()
	hits := make([]ranker.ScoredDoc, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, ranker.ScoredDoc{Row: row, Score: scores[row]})
	}
	return hits
}

// Normalize applies the executor's query pipeline without running a search.
func (e *Executor) Normalize(query string) string {
	return e.normalize(query)
}

func (e *Executor) Stats() Stats {
	return Stats{
		Source:         e.corpus.Source(),
		Rows:           e.corpus.Len(),
		DegradedRows:   e.corpus.DegradedRows(),
		VocabularySize: e.space.VocabularySize(),
		Granularity:    string(e.space.Granularity()),
		Threshold:      e.opts.Threshold,
		Order:          e.opts.Order,
		Fallback:       e.opts.FallbackEnabled,
		MaxResults:     e.opts.MaxResults,
	}
}

// Fingerprint identifies the option set and corpus shape; results computed
// under different fingerprints are not interchangeable.
func (e *Executor) Fingerprint() string {
	return fmt.Sprintf("%s|g=%s|v=%d|t=%g|f=%t|o=%s|m=%d",
		e.corpus.Source(), e.space.Granularity(), e.space.VocabularySize(),
		e.opts.Threshold, e.opts.FallbackEnabled, e.opts.Order, e.opts.MaxResults)
}
