package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"powerforge/internal/logfields"
)

// Server exposes /metrics and /healthz over HTTP for a running pipeline
// host (used by `powerforge run` when `metrics.enabled` is set in the tool
// configuration, listening on `metrics.addr`).
type Server struct {
	httpServer *http.Server
}

// NewServer builds a chi-routed metrics server bound to addr.
func NewServer(addr string, reg *prom.Registry) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logRequest)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks serving metrics until the server errors or is shut
// down. http.ErrServerClosed is swallowed as the expected shutdown signal.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// logRequest logs one line per request to the metrics/healthz endpoints.
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("metrics http request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(ww.Status()),
			logfields.DurationMS(float64(time.Since(started).Microseconds())/1000),
		)
	})
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
