// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for
// the automation engine. Every Metrics method is safe on a nil receiver so
// components can be built without telemetry.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	workflowRuns     *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	stepFailures     *prometheus.CounterVec
	locatorLookups   *prometheus.CounterVec
	handshakes       *prometheus.CounterVec
	transitions      *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		workflowRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Workflow runs by outcome",
			},
			[]string{"workflow", "outcome"},
		),
		workflowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Duration of workflow runs in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"workflow"},
		),
		stepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_step_failures_total",
				Help:      "Failed workflow steps by policy applied",
			},
			[]string{"workflow", "step", "policy"},
		),
		locatorLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "locator_lookups_total",
				Help:      "Element lookups by result",
			},
			[]string{"result"},
		),
		handshakes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handshake_sessions_total",
				Help:      "Handshake sessions by final state",
			},
			[]string{"result"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detector_transitions_total",
				Help:      "Transition events emitted by change detectors",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.workflowRuns,
		m.workflowDuration,
		m.stepFailures,
		m.locatorLookups,
		m.handshakes,
		m.transitions,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WorkflowRun records a finished run.
func (m *Metrics) WorkflowRun(workflow, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.workflowRuns.WithLabelValues(workflow, outcome).Inc()
	m.workflowDuration.WithLabelValues(workflow).Observe(d.Seconds())
}

// StepFailure records a failed step and the policy that handled it.
func (m *Metrics) StepFailure(workflow, step, policy string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(workflow, step, policy).Inc()
}

// LocatorLookup records a lookup result: found, not_found or canceled.
func (m *Metrics) LocatorLookup(result string) {
	if m == nil {
		return
	}
	m.locatorLookups.WithLabelValues(result).Inc()
}

// Handshake records how a handshake session ended.
func (m *Metrics) Handshake(result string) {
	if m == nil {
		return
	}
	m.handshakes.WithLabelValues(result).Inc()
}

// Transition records an emitted transition event.
func (m *Metrics) Transition(kind string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}
