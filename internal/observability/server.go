// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the runtime is ready: plugin loading
// has finished and the service/event layers accept traffic.
type ReadinessChecker func() bool

// Package-level runtime counters. Components increment these without
// holding a Server reference; the server registers them on construction.
var (
	pluginsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warcade_plugins_loaded_total",
			Help: "Total number of plugins loaded successfully",
		},
		[]string{"plugin"},
	)
	pluginsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warcade_plugins_skipped_total",
			Help: "Total number of plugins skipped due to load errors",
		},
		[]string{"plugin"},
	)
	serviceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warcade_service_calls_total",
			Help: "Total number of service calls by plugin, service, and status",
		},
		[]string{"plugin", "service", "status"},
	)
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warcade_events_published_total",
			Help: "Total number of events published by topic",
		},
		[]string{"topic"},
	)
	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warcade_events_dropped_total",
			Help: "Total number of events dropped because a subscriber buffer was full",
		},
		[]string{"topic"},
	)
)

// RecordPluginLoaded increments the loaded-plugin counter.
func RecordPluginLoaded(plugin string) {
	pluginsLoaded.WithLabelValues(plugin).Inc()
}

// RecordPluginSkipped increments the skipped-plugin counter.
func RecordPluginSkipped(plugin string) {
	pluginsSkipped.WithLabelValues(plugin).Inc()
}

// RecordServiceCall increments the service call counter.
// status is "ok", "error", or "not_found".
func RecordServiceCall(plugin, service, status string) {
	serviceCalls.WithLabelValues(plugin, service, status).Inc()
}

// RecordEventPublished increments the published-event counter.
func RecordEventPublished(topic string) {
	eventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventDropped increments the dropped-event counter.
func RecordEventDropped(topic string) {
	eventsDropped.WithLabelValues(topic).Inc()
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100").
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Own registry to avoid polluting the global one
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(pluginsLoaded, pluginsSkipped, serviceCalls, eventsPublished, eventsDropped)

	return &Server{
		addr:     addr,
		registry: registry,
		isReady:  readinessChecker,
	}
}

// Start begins serving observability endpoints. It returns an error
// channel that receives any error from the HTTP server after startup and
// is closed on graceful stop. Callers should monitor it to detect
// server failures.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", s.Addr())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("addr", s.addr).Wrap(err)
	}
	return nil
}

// Addr returns the bound listen address, useful when the configured port
// was 0.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.isReady != nil && !s.isReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
