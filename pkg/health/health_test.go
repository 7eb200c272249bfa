package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("corpus", CorpusCheck(func() (int, int) { return 10, 0 }))
	c.Register("redis", PingCheck(nil))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusUp, report.Components["corpus"].Status)
	assert.Equal(t, "not configured", report.Components["redis"].Message)

	c.Register("corpus", CorpusCheck(func() (int, int) { return 0, 0 }))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestCorpusCheckDegraded(t *testing.T) {
	got := CorpusCheck(func() (int, int) { return 10, 2 })(context.Background())
	assert.Equal(t, StatusDegraded, got.Status)
	assert.Equal(t, "2 of 10 rows have empty searchable text", got.Message)
}

func TestPingCheck(t *testing.T) {
	up := PingCheck(pingFunc(func(context.Context) error { return nil }))(context.Background())
	assert.Equal(t, StatusUp, up.Status)

	down := PingCheck(pingFunc(func(context.Context) error { return errors.New("refused") }))(context.Background())
	assert.Equal(t, StatusDegraded, down.Status)
	assert.Equal(t, "refused", down.Message)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", PingCheck(nil))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("corpus", CorpusCheck(func() (int, int) { return 0, 0 }))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
