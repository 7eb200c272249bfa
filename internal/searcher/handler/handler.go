// Package handler exposes the retrieval core over HTTP as JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/normsearch/normsearch/internal/searcher/cache"
	"github.com/normsearch/normsearch/internal/searcher/executor"
	apperrors "github.com/normsearch/normsearch/pkg/errors"
	"github.com/normsearch/normsearch/pkg/logger"
	"github.com/normsearch/normsearch/pkg/metrics"
	"github.com/normsearch/normsearch/pkg/middleware"
	"github.com/normsearch/normsearch/pkg/tracing"
)

const maxQueryBytes = 4096

type SearchExecutor interface {
	Normalize(query string) string
	Execute(ctx context.Context, query string) (*executor.SearchResult, error)
	Stats() executor.Stats
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds the handler. queryCache and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET /api/v1/search?q=. A query that normalizes to nothing
// is answered with an empty result, not an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	values := r.URL.Query()
	if !values.Has("q") {
		h.writeError(w, apperrors.InvalidInput("query parameter 'q' is required"))
		return
	}
	query := values.Get("q")
	if len(query) > maxQueryBytes {
		h.writeError(w, apperrors.InvalidInput("query exceeds %d bytes", maxQueryBytes))
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	var (
		result   *executor.SearchResult
		cacheHit bool
		err      error
	)
	normalized := h.executor.Normalize(query)
	if h.cache != nil && normalized != "" {
		span.SetAttr("cache", true)
		result, cacheHit, err = h.cache.GetOrCompute(ctx, normalized, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, query)
		})
		if err == nil {
			out := *result
			out.Query = query
			result = &out
		}
	} else {
		result, err = h.executor.Execute(ctx, query)
	}
	if err != nil {
		log.Error("search execution failed", "error", err)
		h.writeError(w, err)
		return
	}

	elapsed := time.Since(start)
	h.observe(result, cacheHit, elapsed)
	log.Info("search completed",
		"path", result.Path,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// CorpusStats answers GET /api/v1/corpus/stats.
func (h *Handler) CorpusStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.executor.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) observe(result *executor.SearchResult, cacheHit bool, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	cacheStatus := "none"
	if h.cache != nil {
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(string(result.Path)).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Only AppError messages reach the
// client; anything else is reported generically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := http.StatusText(status)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
