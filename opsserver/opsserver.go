// Package opsserver exposes the subsystem's optional ambient operations
// surface (SPEC_FULL.md §2.2): Prometheus scrape endpoint and a
// liveness/disk-pressure health check for the sink's filesystem.
// Grounded on the teacher's internal/app/handlers.go HTTP registration
// style (gorilla/mux router, one handler per concern).
package opsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/disk"
)

// minFreePercent below which /healthz reports unhealthy: the handler
// can still technically write, but is close enough to ENOSPC that an
// operator should be paged before the durable-write primitive starts
// failing.
const minFreePercent = 5.0

// Server is the optional HTTP listener started by corelog.Init when
// config.Options.OpsAddr is non-empty.
type Server struct {
	httpSrv *http.Server
	sinkDir string
}

// New builds a Server bound to addr. reg is the Prometheus registry the
// metrics.Collector was built against; sinkPath is the sink's path
// (used to resolve its containing filesystem for the health check).
func New(addr string, reg *prometheus.Registry, sinkPath string) *Server {
	s := &Server{sinkDir: filepath.Dir(sinkPath)}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	s.httpSrv = &http.Server{Addr: addr, Handler: r}
	return s
}

type healthResponse struct {
	Healthy     bool    `json:"healthy"`
	FreePercent float64 `json:"free_percent"`
	Path        string  `json:"path"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	usage, err := disk.UsageWithContext(r.Context(), s.sinkDir)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(healthResponse{Path: s.sinkDir})
		return
	}

	freePercent := 100 - usage.UsedPercent
	resp := healthResponse{
		Healthy:     freePercent >= minFreePercent,
		FreePercent: freePercent,
		Path:        s.sinkDir,
	}
	if !resp.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

// Handler exposes the router directly, for tests that want to drive it
// through httptest without binding a real listener.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving in the background, delivering ListenAndServe's
// terminal error (nil on a clean Shutdown) on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
