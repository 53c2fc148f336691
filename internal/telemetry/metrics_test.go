package telemetry_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/telemetry"
)

func TestObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)

	m.ObserveStep("extract", "success", 120*time.Millisecond)
	m.ObserveStep("extract", "success", 80*time.Millisecond)
	m.ObserveStep("extract", "failed", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepExecutions.WithLabelValues("extract", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepExecutions.WithLabelValues("extract", "failed")))
}

func TestCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)

	m.CacheHits.Inc()
	m.CacheHits.Inc()
	m.CacheMisses.Inc()
	m.PreviewRenders.WithLabelValues("delta").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreviewRenders.WithLabelValues("delta")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHandlerServesInjectedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)
	m.CacheHits.Inc()
	m.ObserveStep("extract", "success", 10*time.Millisecond)

	rr := httptest.NewRecorder()
	telemetry.Handler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	body, err := io.ReadAll(rr.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cardpipe_step_cache_hits_total 1")
	assert.Contains(t, string(body), `cardpipe_step_executions_total{status="success",step="extract"} 1`)
}
