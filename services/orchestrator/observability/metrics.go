// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the engine.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "prompttune"
const engineSubsystem = "engine"

// EngineMetrics holds all Prometheus metrics for optimize and chat
// operations. Initialize once at startup via InitMetrics(). All recording
// methods tolerate a nil receiver so metrics stay optional in tests.
type EngineMetrics struct {
	// RequestsTotal counts engine requests by endpoint and status.
	// Labels: endpoint (optimize, chat), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request latency.
	// Labels: endpoint (optimize, chat)
	RequestDurationSeconds *prometheus.HistogramVec

	// ErrorsTotal counts errors by endpoint and error code.
	// Labels: endpoint, error_code (validation, not_found, llm_error,
	// timeout, retrieval_error, internal)
	ErrorsTotal *prometheus.CounterVec

	// PersonaHealsTotal counts dangling persona references cleared
	// during resolution.
	PersonaHealsTotal prometheus.Counter

	// RetrievalFallbacksTotal counts hybrid searches that degraded to the
	// unscored BM25 path or to an empty pattern list.
	RetrievalFallbacksTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of EngineMetrics.
// Initialized by InitMetrics(); nil until then.
var DefaultMetrics *EngineMetrics

// InitMetrics initializes the default metrics instance.
//
// Should be called once at application startup. Panics if called twice
// (duplicate Prometheus registration).
func InitMetrics() *EngineMetrics {
	DefaultMetrics = &EngineMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "requests_total",
				Help:      "Total number of engine requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"endpoint"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "errors_total",
				Help:      "Total engine errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),

		PersonaHealsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "persona_heals_total",
				Help:      "Dangling active persona references cleared during resolution",
			},
		),

		RetrievalFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "retrieval_fallbacks_total",
				Help:      "Pattern retrievals that degraded instead of failing the request",
			},
		),
	}

	return DefaultMetrics
}

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeNotFound indicates a missing persona, prompt, or session.
	ErrorCodeNotFound ErrorCode = "not_found"

	// ErrorCodeLLMError indicates LLM backend failure.
	ErrorCodeLLMError ErrorCode = "llm_error"

	// ErrorCodeTimeout indicates operation timeout.
	ErrorCodeTimeout ErrorCode = "timeout"

	// ErrorCodeRetrievalError indicates pattern retrieval failure.
	ErrorCodeRetrievalError ErrorCode = "retrieval_error"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// Endpoint represents an engine endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointOptimize is the prompt optimization endpoint.
	EndpointOptimize Endpoint = "optimize"

	// EndpointChat is the simulation chat endpoint.
	EndpointChat Endpoint = "chat"
)

// RecordRequest records a completed engine request.
func (m *EngineMetrics) RecordRequest(endpoint Endpoint, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordDuration records end-to-end request latency.
func (m *EngineMetrics) RecordDuration(endpoint Endpoint, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordError records an engine error.
func (m *EngineMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordPersonaHeal counts a cleared dangling persona reference.
func (m *EngineMetrics) RecordPersonaHeal() {
	if m == nil {
		return
	}
	m.PersonaHealsTotal.Inc()
}

// RecordRetrievalFallback counts a degraded pattern retrieval.
func (m *EngineMetrics) RecordRetrievalFallback() {
	if m == nil {
		return
	}
	m.RetrievalFallbacksTotal.Inc()
}
