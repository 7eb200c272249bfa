package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/searcher/cache"
	"github.com/normsearch/normsearch/internal/searcher/executor"
	"github.com/normsearch/normsearch/pkg/config"
	"github.com/normsearch/normsearch/pkg/metrics"
	pkgredis "github.com/normsearch/normsearch/pkg/redis"
)

const table = `manifestation,standard,section,excerpt,recommendations,related_queries
Fissura em viga,NBR 6118,17.4.2,Fissura inclinada na viga de concreto indica esforço cortante.,Verificar estribos.,trinca viga
Mofo,NBR 15575,11.2,Paredes internas com ventilação deficiente acumulam condensação.,Melhorar a ventilação.,bolor
`

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) FlushByPattern(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.data))
	m.data = make(map[string][]byte)
	return n, nil
}

func newExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	cfg := config.Default()
	e, err := executor.Open(context.Background(),
		corpus.NewCSVReader("test.csv", strings.NewReader(table)), cfg.Corpus, cfg.Retrieval)
	require.NoError(t, err)
	return e
}

func get(t *testing.T, fn http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) executor.SearchResult {
	t.Helper()
	var result executor.SearchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	return result
}

func TestSearch(t *testing.T) {
	h := New(newExecutor(t), nil, nil)

	rec := get(t, h.Search, "/api/v1/search?q="+url.QueryEscape("fissura na viga"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	result := decode(t, rec)
	assert.Equal(t, "fissura na viga", result.Query)
	assert.Equal(t, executor.PathVector, result.Path)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "NBR 6118", result.Results[0].Standard)
	assert.Equal(t, "17.4.2", result.Results[0].Section)
}

func TestSearchEmptyQuery(t *testing.T) {
	h := New(newExecutor(t), nil, nil)

	rec := get(t, h.Search, "/api/v1/search?q=%20%20")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	var result executor.SearchResult
	require.NoError(t, json.NewDecoder(strings.NewReader(body)).Decode(&result))
	assert.Equal(t, executor.PathEmpty, result.Path)
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
	assert.Contains(t, body, `"results":[]`)
}

func TestSearchValidation(t *testing.T) {
	h := New(newExecutor(t), nil, nil)

	rec := get(t, h.Search, "/api/v1/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"query parameter 'q' is required"}`, rec.Body.String())

	rec = get(t, h.Search, "/api/v1/search?q="+strings.Repeat("a", maxQueryBytes+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchWithCacheAndMetrics(t *testing.T) {
	exec := newExecutor(t)
	m := metrics.New(prometheus.NewRegistry())
	qc := cache.New(&memoryStore{data: make(map[string][]byte)}, time.Minute, exec.Fingerprint())
	h := New(exec, qc, m)

	first := get(t, h.Search, "/api/v1/search?q=Mofo")
	require.Equal(t, http.StatusOK, first.Code)
	second := get(t, h.Search, "/api/v1/search?q=MOFO!")
	require.Equal(t, http.StatusOK, second.Code)

	a, b := decode(t, first), decode(t, second)
	assert.Equal(t, "Mofo", a.Query)
	assert.Equal(t, "MOFO!", b.Query)
	assert.Equal(t, a.Results, b.Results)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(string(a.Path))))

	stats := get(t, h.CacheStats, "/api/v1/cache/stats")
	assert.JSONEq(t, `{"hits":1,"misses":1,"total":2,"hit_rate":"50.0%"}`, stats.Body.String())

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"invalidated","keys_deleted":1}`, rec.Body.String())
}

func TestCacheDisabled(t *testing.T) {
	h := New(newExecutor(t), nil, nil)

	assert.JSONEq(t, `{"status":"disabled"}`, get(t, h.CacheStats, "/api/v1/cache/stats").Body.String())

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCorpusStats(t *testing.T) {
	h := New(newExecutor(t), nil, nil)

	rec := get(t, h.CorpusStats, "/api/v1/corpus/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats executor.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, "csv:test.csv", stats.Source)
	assert.Equal(t, "word", stats.Granularity)
	assert.InDelta(t, 0.1, stats.Threshold, 1e-12)
}
