// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for page fetches, the
// page cache, and path searches, and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SourceFetches counts remote page resolutions by outcome
	// (ok, missing, error, cancelled).
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wikibacon",
		Name:      "source_fetches_total",
		Help:      "Remote page resolutions by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts page cache lookups by result (hit, negative, store, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wikibacon",
		Name:      "cache_lookups_total",
		Help:      "Page cache lookups by result.",
	}, []string{"result"})

	// Searches counts path searches by outcome (found, not_connected, budget).
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wikibacon",
		Name:      "searches_total",
		Help:      "Path searches by outcome.",
	}, []string{"outcome"})

	// SearchExpansions observes how many titles a search expanded.
	SearchExpansions = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wikibacon",
		Name:      "search_expansions",
		Help:      "Titles expanded per path search.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// SearchDuration observes path search wall-clock time.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wikibacon",
		Name:      "search_duration_seconds",
		Help:      "Path search duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

// Serve exposes /metrics on addr until ctx is done. It returns nil after a
// clean shutdown.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
