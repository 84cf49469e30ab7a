// Package metrics provides Prometheus metrics for breadbot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesTotal counts handled messages by outcome.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "breadbot",
			Name:      "messages_total",
			Help:      "Total number of inbound messages by handling outcome",
		},
		[]string{"outcome"},
	)

	// DeliveryFailuresTotal counts replies that could not be sent.
	DeliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "breadbot",
			Name:      "delivery_failures_total",
			Help:      "Total number of replies that failed to send after retries",
		},
	)

	// PostsTotal is the number of recorded bread posts.
	PostsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "breadbot",
			Name:      "posts_total",
			Help:      "Number of recorded bread posts",
		},
	)

	// PostsPerDay is the latest computed BPPD.
	PostsPerDay = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "breadbot",
			Name:      "posts_per_day",
			Help:      "Average bread posts per day across the recorded history",
		},
	)
)

// RecordOutcome records one handled message.
func RecordOutcome(outcome string) {
	MessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordDeliveryFailure records a reply that was not delivered.
func RecordDeliveryFailure() {
	DeliveryFailuresTotal.Inc()
}

// SetTally updates the post count and rate gauges.
func SetTally(count int, postsPerDay float64) {
	PostsTotal.Set(float64(count))
	PostsPerDay.Set(postsPerDay)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
