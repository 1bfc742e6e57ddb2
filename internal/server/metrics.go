// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// collectors are the Prometheus series exported on /metrics.
type collectors struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	chatRequests *prometheus.CounterVec
	chatChunks   prometheus.Counter
	retrieved    *prometheus.CounterVec
}

func newCollectors(reg prometheus.Registerer) *collectors {
	c := &collectors{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divecoach_http_requests_total",
				Help: "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "divecoach_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		chatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divecoach_chat_requests_total",
				Help: "Chat requests by template and outcome (ok/invalid/error/aborted).",
			},
			[]string{"template", "outcome"},
		),
		chatChunks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "divecoach_chat_chunks_total",
				Help: "Chunks written to chat streams.",
			},
		),
		retrieved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divecoach_passages_retrieved_total",
				Help: "Passages retrieved per similarity method.",
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(c.httpRequests, c.httpLatency, c.chatRequests, c.chatChunks, c.retrieved)
	return c
}

func (c *collectors) observeHTTP(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.httpLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (c *collectors) chat(template, outcome string) {
	c.chatRequests.WithLabelValues(label(template), outcome).Inc()
}

func (c *collectors) passages(method string, n int) {
	c.retrieved.WithLabelValues(label(method)).Add(float64(n))
}

func label(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
