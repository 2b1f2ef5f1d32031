// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes the Prometheus collectors of the catalog service.
//
// A [Recorder] is built against an explicit registerer so tests can inspect a
// private registry instead of the process-wide default.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aihub"

// Import outcomes reported by [Recorder.ObserveImport].
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Recorder owns every collector the service publishes.
type Recorder struct {
	gatherer prometheus.Gatherer

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	imports       *prometheus.CounterVec
	importWarns   prometheus.Counter
	mediaAttempts *prometheus.CounterVec
	keyAuth       *prometheus.CounterVec
}

// New registers the collectors on registry. A nil registry uses the default one.
func New(registry *prometheus.Registry) *Recorder {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registry != nil {
		registerer, gatherer = registry, registry
	}
	factory := promauto.With(registerer)

	return &Recorder{
		gatherer: gatherer,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_records_total",
				Help:      "Tool records processed by the import pipeline",
			},
			[]string{"outcome"},
		),
		importWarns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_warnings_total",
				Help:      "Non-fatal sub-step failures during import",
			},
		),
		mediaAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_attempts_total",
				Help:      "Media acquisition attempts by source and result",
			},
			[]string{"source", "result"},
		),
		keyAuth: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "apikey_auth_total",
				Help:      "API key authentication outcomes",
			},
			[]string{"result"},
		),
	}
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveImport records the outcome of one import and the warnings it produced.
func (r *Recorder) ObserveImport(outcome string, warnings int) {
	if r == nil {
		return
	}
	r.imports.WithLabelValues(outcome).Inc()
	if warnings > 0 {
		r.importWarns.Add(float64(warnings))
	}
}

// ObserveMedia records a single media acquisition attempt.
func (r *Recorder) ObserveMedia(source string, ok bool) {
	if r == nil {
		return
	}
	result := "miss"
	if ok {
		result = "hit"
	}
	r.mediaAttempts.WithLabelValues(source, result).Inc()
}

// ObserveKeyAuth records whether a gateway request carried a usable key.
func (r *Recorder) ObserveKeyAuth(result string) {
	if r == nil {
		return
	}
	r.keyAuth.WithLabelValues(result).Inc()
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
