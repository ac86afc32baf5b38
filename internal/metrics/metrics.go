package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

// Recorder holds the engine's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	AdapterCalls    *prometheus.CounterVec
	AdapterRetries  *prometheus.CounterVec
	AdapterDuration *prometheus.HistogramVec
	Runs            *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		AdapterCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_adapter_calls_total",
				Help: "Platform adapter calls by final outcome",
			},
			[]string{"platform", "outcome"},
		),
		AdapterRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_adapter_retries_total",
				Help: "Retries issued against platform adapters",
			},
			[]string{"platform"},
		),
		AdapterDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadscout_adapter_duration_seconds",
				Help:    "Wall time of a platform adapter call including retries",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"platform"},
		),
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_runs_total",
				Help: "Aggregation runs by terminal state",
			},
			[]string{"state"},
		),
	}
}

// RecordAdapter updates the adapter metrics for one finished platform task.
func (r *Recorder) RecordAdapter(platform, outcome string, attempts int, d time.Duration) {
	if r == nil {
		return
	}
	r.AdapterCalls.WithLabelValues(platform, outcome).Inc()
	if attempts > 1 {
		r.AdapterRetries.WithLabelValues(platform).Add(float64(attempts - 1))
	}
	r.AdapterDuration.WithLabelValues(platform).Observe(d.Seconds())
}

// RecordRun counts a run reaching a terminal state.
func (r *Recorder) RecordRun(state string) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(state).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on addr and exposes /metrics from g. A nil g uses
// the default gatherer.
func Start(addr string, g prometheus.Gatherer, logger zerolog.Logger) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors, for use in place of the global default.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Push sends everything in g to a Pushgateway under job. One-shot CLI runs
// end before a scrape could reach them, so they push instead.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return push.New(url, job).Gatherer(g).PushContext(ctx)
}
