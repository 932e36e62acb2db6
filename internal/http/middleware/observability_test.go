package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	testlog "github.com/y0lz/backend-json/internal/testutil"
)

func TestObservability_UsesRoutePatternForLabels(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	rec := testlog.New()

	pattern := "/api/shifts/{id}"
	r := chi.NewRouter()
	r.Use(Observability(m, rec.Logger()))
	r.Delete(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/shifts/"+id, nil))
		require.Equal(t, http.StatusNoContent, resp.Code)
	}

	require.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodDelete, pattern, "204")), 0)
	require.Equal(t, uint64(2), histogramCount(t, m.duration, http.MethodDelete, pattern, "204"))

	entries := rec.Entries()
	require.Len(t, entries, 2)
	path, _ := entries[0].Field("path")
	require.Equal(t, pattern, path)
}

func TestObservability_UnmatchedRouteCollapses(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(Observability(m, testlog.New().Logger()))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/2", nil))

	require.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")), 0)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	require.Error(t, err)
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, method, path, status string) uint64 {
	t.Helper()

	obs, err := hv.GetMetricWithLabelValues(method, path, status)
	require.NoError(t, err)

	metric, ok := obs.(prometheus.Metric)
	require.True(t, ok, "must implement prometheus.Metric")

	m := &dto.Metric{}
	require.NoError(t, metric.Write(m))

	h := m.GetHistogram()
	require.NotNil(t, h)
	return h.GetSampleCount()
}
