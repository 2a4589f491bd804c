// Package server runs the HTTP and gRPC listeners of the pipeline binaries.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/metrics"
)

// Instrument wraps h so every request is counted and timed under name.
func Instrument(name string, h http.Handler, m *metrics.HTTP, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(h, w, r)
		m.Observe(name, snoop.Code, snoop.Duration)
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"handler":     name,
				"method":      r.Method,
				"path":        r.URL.Path,
				"code":        snoop.Code,
				"duration_ms": snoop.Duration.Milliseconds(),
			}).Debug("request served")
		}
	})
}

// WithCORS allows cross-origin calls from dashboards and browser tools.
// x-api-key is the intake credential header.
func WithCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "x-api-key"},
	}).Handler(h)
}

// ServeHTTP serves h on addr until ctx is done, then shuts down, letting in-flight requests finish within grace.
func ServeHTTP(ctx context.Context, addr string, h http.Handler, grace time.Duration, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
