package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "groupagg/internal/errors"
	"groupagg/internal/services"
)

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(services.NewHealthService("0.3.0", "", 2, nil), nil)

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
	}{
		{"health", h.HealthCheck, "ok"},
		{"liveness", h.LivenessCheck, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "0.3.0", body["version"])
		})
	}

	w := httptest.NewRecorder()
	h.Version(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Contains(t, w.Body.String(), "go_version")
}

func TestMetricsHandler(t *testing.T) {
	errorHandler := apierrors.NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	NewMetricsHandler(nil, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	prom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("groupagg_aggregate_runs_total 1\n"))
	})
	w = httptest.NewRecorder()
	NewMetricsHandler(prom, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "groupagg_aggregate_runs_total")
}
