// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_tool_calls_total",
		Help: "Tool invocations by tool and outcome",
	}, []string{"tool", "outcome"}) // outcome=success|failure|error

	toolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqlite_mcp_tool_call_duration_seconds",
		Help:    "Tool invocation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	toolRepairedSegmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_tool_repaired_segments_total",
		Help: "Reply text segments replaced by placeholders",
	}, []string{"tool"})
)

// OutcomeError marks a call answered with an error envelope.
const OutcomeError = "error"

// RecordToolCall counts one tool invocation.
func RecordToolCall(tool, outcome string, seconds float64) {
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(seconds)
}

// RecordRepairedSegments counts placeholder substitutions in a reply.
func RecordRepairedSegments(tool string, n int) {
	if n <= 0 {
		return
	}
	toolRepairedSegmentsTotal.WithLabelValues(tool).Add(float64(n))
}
