// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the API server.

Collectors are registered against an injected [prometheus.Registerer] so tests
can use a private registry instead of the process-wide default.

Series:

  - vidtube_http_requests_total{method,route,status}
  - vidtube_http_request_duration_seconds{method,route,status}
  - vidtube_auth_events_total{event,outcome}
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/vidtube/internal/platform/middleware"
)

const namespace = "vidtube"

// unmatchedRoute labels requests that never matched a chi route, keeping
// label cardinality bounded.
const unmatchedRoute = "unmatched"

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics owns every collector the server records into.
type Metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	authEvents     *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),

		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),

		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Session lifecycle events by outcome",
		}, []string{"event", "outcome"}),
	}

	for _, collector := range []prometheus.Collector{metrics.requestTotal, metrics.requestLatency, metrics.authEvents} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// Middleware records request count and latency labelled by chi route pattern.
func (metrics *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startTime := time.Now()
		recorder := middleware.NewStatusRecorder(writer)

		next.ServeHTTP(recorder, request)

		route := unmatchedRoute
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		labels := prometheus.Labels{
			"method": request.Method,
			"route":  route,
			"status": strconv.Itoa(recorder.Status),
		}
		metrics.requestTotal.With(labels).Inc()
		metrics.requestLatency.With(labels).Observe(time.Since(startTime).Seconds())
	})
}

// ObserveAuthEvent counts one session lifecycle event, e.g. ("refresh", "reuse").
func (metrics *Metrics) ObserveAuthEvent(event, outcome string) {
	metrics.authEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
