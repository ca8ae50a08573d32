package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/njchilds90/htmlsanitizer/v2/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// watchMetrics counts the work done by a dirWatcher.
type watchMetrics struct {
	sanitized prometheus.Counter
	failed    prometheus.Counter
	bytes     prometheus.Counter
}

func newWatchMetrics(reg prometheus.Registerer) *watchMetrics {
	m := &watchMetrics{
		sanitized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "htmlsan",
			Subsystem: "watch",
			Name:      "files_sanitized_total",
			Help:      "Files sanitized into the output directory.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "htmlsan",
			Subsystem: "watch",
			Name:      "files_failed_total",
			Help:      "Files that could not be sanitized.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "htmlsan",
			Subsystem: "watch",
			Name:      "output_bytes_total",
			Help:      "Bytes of sanitized HTML written.",
		}),
	}
	reg.MustRegister(m.sanitized, m.failed, m.bytes)
	return m
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger logging.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsHandler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info(ctx, "serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, err, "metrics server failed")
		}
	}()
}
