package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/procurehq/backend-procure/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("procure", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/healthz"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/healthz", "204"))
	require.Equal(t, float64(1), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
}

func TestStatusRecorderDefaults(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := obs.NewStatusRecorder(rr)
	n, err := rec.Write([]byte("ok"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, http.StatusOK, rec.Status())
	require.Equal(t, int64(2), rec.BytesWritten())
}
