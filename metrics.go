package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"herobg/backdrop"
)

type metrics struct {
	ticks       prometheus.Counter
	tickSeconds prometheus.Histogram
	mode        prometheus.Gauge
	transitions *prometheus.CounterVec
	reloads     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backdrop_ticks_total",
			Help: "Completed update-and-render ticks",
		}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backdrop_tick_seconds",
			Help:    "Time spent in one tick, render included",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backdrop_mode",
			Help: "Current scroll mode: 0 near, 1 far",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backdrop_mode_transitions_total",
			Help: "Scroll mode changes by target mode",
		}, []string{"to"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backdrop_settings_reloads_total",
			Help: "Settings hot reloads by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ticks, m.tickSeconds, m.mode, m.transitions, m.reloads)
	return m
}

func (m *metrics) ObserveTick(s backdrop.TickStats) {
	m.ticks.Inc()
	m.tickSeconds.Observe(s.Duration.Seconds())
	m.mode.Set(float64(s.Mode))
	if s.ModeChanged {
		m.transitions.WithLabelValues(s.Mode.String()).Inc()
	}
}

func (m *metrics) reloaded(err error) {
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
}

// observers fans one tick out to several observers in order.
type observers []backdrop.Observer

func (o observers) ObserveTick(s backdrop.TickStats) {
	for _, ob := range o {
		ob.ObserveTick(s)
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// serveMetrics exposes g on addr/metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logError("metrics shutdown: %v", err)
		}
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
