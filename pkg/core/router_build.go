package core

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	hmetrics "github.com/joeydtaylor/steeze-jrtc/pkg/middleware/metrics"
)

// BuildRouter mounts the app API (and /ping, /metrics) on d.Router.
func BuildRouter(d BuildDeps) http.Handler {
	return NewServer(d).Routes(d)
}

// Routes mounts s and the shared middleware on d.Router.
func (s *Server) Routes(d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	r.Use(hmetrics.Collect())

	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		hmetrics.AddMetricsSkipPaths(path)
		r.Handle(http.MethodGet, path, d.Metrics)
	}

	r.Get("/app", http.HandlerFunc(s.listApps))
	r.Post("/app", http.HandlerFunc(s.loadApp))
	r.Get("/app/{id}", http.HandlerFunc(s.getApp))
	r.Delete("/app/{id}", http.HandlerFunc(s.unloadApp))
	return r.Mux()
}
