// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/metrics"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(recorder.Middleware)
	router.Get("/api/v1/users/c/{username}", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"alice", "bob"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/c/"+name, nil))
	}

	count, err := testutil.GatherAndCount(registry, "vidtube_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both usernames collapse into one route series")
}

func TestObserveAuthEvent(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	require.NoError(t, err)

	recorder.ObserveAuthEvent("refresh", "reuse")
	recorder.ObserveAuthEvent("refresh", "reuse")
	recorder.ObserveAuthEvent("login", "success")

	count, err := testutil.GatherAndCount(registry, "vidtube_auth_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := metrics.New(registry)
	require.NoError(t, err)

	_, err = metrics.New(registry)
	assert.Error(t, err)
}

func TestHandler_Exposes(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	require.NoError(t, err)
	recorder.ObserveAuthEvent("logout", "success")

	response := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(response, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), `vidtube_auth_events_total{event="logout",outcome="success"} 1`)
}
