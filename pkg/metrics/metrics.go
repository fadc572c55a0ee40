// Package metrics exposes the bot's Prometheus collectors and the optional
// HTTP endpoint that serves them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notabot_events_ingested_total",
		Help: "Total number of events accepted onto the queue, labelled by source type.",
	}, []string{"source"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notabot_events_dropped_total",
		Help: "Total number of events discarded without running a workflow, labelled by reason.",
	}, []string{"reason"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notabot_runs_total",
		Help: "Total number of workflow runs, labelled by workflow name and outcome.",
	}, []string{"workflow", "status"})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notabot_run_duration_seconds",
		Help:    "Workflow run duration in seconds, labelled by workflow name.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"workflow"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notabot_queue_depth",
		Help: "Number of events currently buffered or awaiting dispatch.",
	})
)

// Serve exposes /metrics on addr until ctx is cancelled. It returns once the
// listener is bound, so callers can log startup failures immediately.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", serveErr)
		}
	}()

	logger.Info("Metrics endpoint listening", "addr", listener.Addr().String())

	return nil
}
