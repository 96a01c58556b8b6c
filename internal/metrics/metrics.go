// Package metrics holds the Prometheus collectors of the tool server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// toolCalls counts tool requests by tool and result
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symbind",
		Name:      "tool_calls_total",
		Help:      "Total tool calls by tool and result",
	}, []string{"tool", "result"})

	// toolDuration tracks tool call latency
	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "symbind",
		Name:      "tool_call_duration_seconds",
		Help:      "Tool call duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	}, []string{"tool"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "symbind",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

// ObserveTool records one tool call. Its signature matches symbind.Observer.
func ObserveTool(tool string, failed bool, elapsed time.Duration) {
	if tool == "" {
		tool = "unknown"
	}
	result := "ok"
	if failed {
		result = "error"
	}
	toolCalls.WithLabelValues(tool, result).Inc()
	toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
