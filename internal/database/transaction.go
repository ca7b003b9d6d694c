// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/metrics"
	"github.com/ManuGH/sqlite-mcp/internal/telemetry"
	"github.com/rs/zerolog"
)

// Operation is one statement of a transaction.
type Operation struct {
	SQL    string `json:"sql" yaml:"sql"`
	Params []any  `json:"params,omitempty" yaml:"params,omitempty"`
}

// TransactionResult reports every executed operation, including the failing
// one, so callers can see how far the transaction got before rollback.
type TransactionResult struct {
	Success bool          `json:"success"`
	Results []QueryResult `json:"results"`
	Error   string        `json:"error,omitempty"`
}

// RunTransaction runs ops in order inside one transaction. The first failing
// operation rolls everything back; nothing is applied unless every operation
// succeeds and the commit goes through.
func (m *Manager) RunTransaction(ctx context.Context, rawPath string, ops []Operation) TransactionResult {
	ctx, cancel := m.statementContext(ctx)
	defer cancel()

	var res TransactionResult
	err := m.withHandle(ctx, rawPath, func(e *Entry) error {
		var err error
		res, err = m.runTransaction(ctx, e, ops)
		return err
	})
	if err != nil {
		return TransactionResult{Success: false, Results: []QueryResult{}, Error: failure(err, rawPath).Error}
	}
	return res
}

func (m *Manager) runTransaction(ctx context.Context, e *Entry, ops []Operation) (TransactionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "db.transaction", telemetry.TransactionAttributes(e.Path, len(ops))...)
	logger := xglog.WithContext(ctx, m.logger).With().Str(xglog.FieldPath, e.Path).Logger()
	results := make([]QueryResult, 0, len(ops))

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		if isClosedHandle(err.Error()) {
			span.End()
			return TransactionResult{}, errHandleClosed
		}
		metrics.RecordTransaction(metrics.TxError)
		telemetry.EndSpan(span, err, "")
		return TransactionResult{Success: false, Results: results, Error: fmt.Sprintf("begin transaction: %v", err)}, nil
	}

	for i, op := range ops {
		r := m.runStatement(ctx, tx, e.Path, op.SQL, op.Params)
		results = append(results, r)
		if r.Success {
			continue
		}
		rollback(tx, logger)
		metrics.RecordTransaction(metrics.TxRollback)
		telemetry.EndSpan(span, fmt.Errorf("operation %d failed: %s", i, r.Error), "")
		logger.Debug().Int("operation", i).Str("error", r.Error).Msg("transaction rolled back")
		return TransactionResult{Success: false, Results: results, Error: r.Error}, nil
	}

	if err := tx.Commit(); err != nil {
		rollback(tx, logger)
		metrics.RecordTransaction(metrics.TxError)
		telemetry.EndSpan(span, err, "")
		return TransactionResult{Success: false, Results: results, Error: fmt.Sprintf("commit transaction: %v", err)}, nil
	}

	metrics.RecordTransaction(metrics.TxCommit)
	telemetry.EndSpan(span, nil, "")
	return TransactionResult{Success: true, Results: results}, nil
}

// rollback is best effort; the error that caused it is what gets reported.
func rollback(tx *sql.Tx, logger zerolog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Debug().Err(err).Msg("rollback failed")
	}
}
