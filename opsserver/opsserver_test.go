package opsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzReportsDiskUsage(t *testing.T) {
	dir := t.TempDir()
	s := New(":0", prometheus.NewRegistry(), filepath.Join(dir, "sink.log"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)

	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, dir, resp.Path)
}

func TestHealthzUnknownPathIsUnavailable(t *testing.T) {
	s := New(":0", prometheus.NewRegistry(), "/this/path/does/not/exist-xyz/sink.log")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointServes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter"})
	reg.MustRegister(c)
	c.Inc()

	s := New(":0", reg, filepath.Join(os.TempDir(), "sink.log"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, rec.Body.Len(), "empty /metrics body")
}
