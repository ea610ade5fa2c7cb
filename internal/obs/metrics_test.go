package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposed(t *testing.T) {
	m := New()
	m.Logins.WithLabelValues("success").Inc()
	m.Recognitions.WithLabelValues("mock", "matched").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("success")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `campus_recognitions_total{outcome="matched",source="mock"} 2`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewIsolatesRegistries(t *testing.T) {
	a, b := New(), New()
	a.CriticalAlerts.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CriticalAlerts))
}
