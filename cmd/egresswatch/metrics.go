package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/egresswatch/egresswatch/internal/config"
	"github.com/egresswatch/egresswatch/pkg/database"
	"github.com/egresswatch/egresswatch/pkg/lifecycle"
)

const metricsShutdownTimeout = 5 * time.Second

// metricsServer exposes Prometheus metrics plus liveness and readiness
// probes on a dedicated listener.
type metricsServer struct {
	http   *http.Server
	logger *slog.Logger
}

func newMetricsServer(cfg *config.MetricsConfig, registry *prometheus.Registry, db database.System, lc *lifecycle.Coordinator, logger *slog.Logger) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !lc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "database unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return &metricsServer{
		http: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		logger: logger.With("system", "metrics"),
	}
}

func (s *metricsServer) Start(lc *lifecycle.Coordinator) {
	go func() {
		s.logger.Info("metrics listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("shutting down metrics server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("metrics shutdown error", "error", err)
		}
	})
}
