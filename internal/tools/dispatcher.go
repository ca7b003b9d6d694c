// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package tools holds the tool definitions, their handlers and the
// dispatcher that validates arguments, runs handlers and normalises every
// reply.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/sqlite-mcp/internal/errclass"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/metrics"
	"github.com/ManuGH/sqlite-mcp/internal/telemetry"
)

// Dispatcher routes tool calls to handlers. The definition list is built
// once and never changes.
type Dispatcher struct {
	defs   []Definition
	index  map[string]int
	logger zerolog.Logger
}

// NewDispatcher builds the tool set on top of exec and compiles every input
// schema.
func NewDispatcher(exec Executor) (*Dispatcher, error) {
	if exec == nil {
		return nil, errors.New("tools: executor is required")
	}
	defs, err := newDefinitions(&handlers{exec: exec})
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}
	return &Dispatcher{
		defs:   defs,
		index:  index,
		logger: xglog.WithComponent("tools"),
	}, nil
}

// ListTools returns the advertised tools in a stable order.
func (d *Dispatcher) ListTools() []Definition {
	out := make([]Definition, len(d.defs))
	copy(out, d.defs)
	return out
}

// Call runs the named tool. It always returns a well-formed reply: protocol
// failures are rendered as an error envelope with IsError set, statement
// failures are reported inside the payload.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) Result {
	requestID := uuid.NewString()
	ctx = xglog.ContextWithRequestID(ctx, requestID)
	ctx = xglog.ContextWithTool(ctx, name)
	ctx, span := telemetry.StartSpan(ctx, "tool.call", telemetry.ToolAttributes(name, requestID)...)
	start := time.Now()

	res, err := d.invoke(ctx, name, args)
	outcome := metrics.OutcomeSuccess
	errorType := ""
	switch {
	case err != nil:
		err = d.classify(err, name)
		errorType = errclass.TypeOf(err)
		res = errorResult(err)
		outcome = metrics.OutcomeError
	case res.failed:
		outcome = metrics.OutcomeFailure
	}

	logger := xglog.WithContext(ctx, d.logger)
	res, repaired := repair(res)
	if repaired > 0 {
		metrics.RecordRepairedSegments(name, repaired)
		logger.Warn().
			Str(xglog.FieldEvent, "tool.repair").
			Int("segments", repaired).
			Msg("replaced malformed reply segments")
	}

	elapsed := time.Since(start)
	metrics.RecordToolCall(name, outcome, elapsed.Seconds())
	telemetry.EndSpan(span, err, errorType)

	var ev *zerolog.Event
	if err != nil {
		ev = logger.Warn().Err(err).Str(xglog.FieldErrorType, errorType)
	} else {
		ev = logger.Info()
	}
	ev.Str(xglog.FieldEvent, "tool.call").
		Str(xglog.FieldOutcome, outcome).
		Dur(xglog.FieldDuration, elapsed).
		Msg("tool call finished")

	return res
}

func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]any) (res Result, err error) {
	i, ok := d.index[name]
	if !ok {
		return Result{}, errclass.NewProtocolError(errclass.ToolNotFound, name, fmt.Sprintf("tool not found: %s", name))
	}
	def := d.defs[i]

	defer func() {
		if r := recover(); r != nil {
			err = &errclass.ProtocolError{
				Type:    errclass.InternalError,
				Message: fmt.Sprintf("tool %s panicked: %v", name, r),
				Tool:    name,
			}
		}
	}()

	if err := def.validate(args); err != nil {
		return Result{}, err
	}
	return def.handle(ctx, args)
}

func (d *Dispatcher) classify(err error, name string) error {
	if errors.Is(err, ErrInvalidArguments) && !errclass.IsClassified(err) {
		return &errclass.ProtocolError{
			Type:    errclass.InvalidParameters,
			Message: err.Error(),
			Tool:    name,
			Err:     err,
		}
	}
	return errclass.Generic(err, errclass.Context{Tool: name})
}

func errorResult(err error) Result {
	env := errclass.ToEnvelope(err)
	return Result{
		Content:    []Content{{Type: ContentTypeText, Text: env.JSON()}},
		Structured: env,
		IsError:    true,
		failed:     true,
	}
}
