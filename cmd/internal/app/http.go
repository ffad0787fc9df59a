package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hush/cmd/internal/api"
	"hush/cmd/internal/realtime"
	"hush/cmd/internal/storage"
)

type routes struct {
	cfg      Config
	log      Logger
	stores   *Stores
	api      *api.Handler
	ws       *realtime.Gateway
	registry *prometheus.Registry
}

func registerHTTP(mux *http.ServeMux, rt routes) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if rt.cfg.ReadinessRequireDB && rt.stores.Backend != storage.BackendPostgres {
			http.Error(w, "postgres not configured", http.StatusServiceUnavailable)
			return
		}
		if err := rt.stores.Ping(r.Context(), 2*time.Second); err != nil {
			rt.log.Info("readyz.db.not_ready", "backend", string(rt.stores.Backend), "err", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if rt.cfg.MetricsEnabled && rt.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	}

	rt.api.Register(mux)
	mux.Handle("GET /ws", rt.ws)
}
