// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_statements_total",
		Help: "Executed SQL statements by kind and outcome",
	}, []string{"kind", "outcome"}) // kind=read|write, outcome=success|failure

	statementErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_statement_errors_total",
		Help: "Failed SQL statements by classified error type",
	}, []string{"error_type"})

	statementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqlite_mcp_statement_duration_seconds",
		Help:    "SQL statement execution time",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"kind"})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlite_mcp_transactions_total",
		Help: "Transactions by outcome",
	}, []string{"outcome"}) // outcome=commit|rollback|error
)

// Outcome labels shared by the statement and tool metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Transaction outcomes.
const (
	TxCommit   = "commit"
	TxRollback = "rollback"
	TxError    = "error"
)

// RecordStatement counts one statement and its duration.
func RecordStatement(kind, outcome string, seconds float64) {
	statementsTotal.WithLabelValues(kind, outcome).Inc()
	statementDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordStatementError counts one failed statement by error type.
func RecordStatementError(errorType string) {
	statementErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordTransaction counts one finished transaction.
func RecordTransaction(outcome string) {
	transactionsTotal.WithLabelValues(outcome).Inc()
}
