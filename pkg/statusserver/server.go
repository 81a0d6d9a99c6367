// Package statusserver exposes the monitor's health and latest cycle
// result over HTTP.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/apimon/apimon/pkg/monitor"
)

const (
	healthEndpoint = "/healthz"
	statusEndpoint = "/statusz"

	shutdownTimeout = 10 * time.Second
)

// StatusSource provides the latest completed cycle result.
type StatusSource interface {
	Latest() *monitor.CycleResult
}

// Handler builds the status server's HTTP handler.
func Handler(source StatusSource) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(healthEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc(statusEndpoint, func(w http.ResponseWriter, r *http.Request) {
		result := source.Latest()
		if result == nil {
			http.Error(w, "no monitoring cycle completed yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Error().Err(err).Msg("Failed to encode status response")
		}
	})

	return RequestMiddleware(mux)
}

// Serve runs the status server until the context is cancelled, then
// shuts it down gracefully.
func Serve(ctx context.Context, source StatusSource, port int) error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: Handler(source),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("Status server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down status server")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Status server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Status server shutdown error")
		return err
	}

	return nil
}
