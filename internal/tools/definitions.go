// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Tool names.
const (
	ToolCreateTable  = "create_table"
	ToolInsertData   = "insert_data"
	ToolSelectData   = "select_data"
	ToolGetSchema    = "get_schema"
	ToolUpdateData   = "update_data"
	ToolDeleteData   = "delete_data"
	ToolMetaCommands = "meta_commands"
	ToolTest         = "test_tool"
)

type handlerFunc func(ctx context.Context, args map[string]any) (Result, error)

// Definition describes one advertised tool.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`

	validator *gojsonschema.Schema
	handle    handlerFunc
}

// bind decodes already validated arguments into A before calling fn.
func bind[A any](fn func(context.Context, A) (Result, error)) handlerFunc {
	return func(ctx context.Context, args map[string]any) (Result, error) {
		var a A
		b, err := json.Marshal(args)
		if err != nil {
			return Result{}, invalidArgs(err)
		}
		// Numbers stay json.Number so integers beyond 2^53 bind exactly.
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode(&a); err != nil {
			return Result{}, invalidArgs(err)
		}
		return fn(ctx, a)
	}
}

func newDefinitions(h *handlers) ([]Definition, error) {
	defs := []Definition{
		{
			Name:        ToolCreateTable,
			Description: "Create a new SQLite table",
			InputSchema: createTableSchema,
			handle:      bind(h.createTable),
		},
		{
			Name:        ToolInsertData,
			Description: "Insert one row into a SQLite table",
			InputSchema: insertDataSchema,
			handle:      bind(h.insertData),
		},
		{
			Name:        ToolSelectData,
			Description: "Run a SELECT query against a SQLite database. WHERE clauses, joins and bound parameters are supported.",
			InputSchema: selectDataSchema,
			handle:      bind(h.selectData),
		},
		{
			Name:        ToolGetSchema,
			Description: "List the tables of a SQLite database, or describe the columns and DDL of one table",
			InputSchema: getSchemaSchema,
			handle:      bind(h.getSchema),
		},
		{
			Name:        ToolUpdateData,
			Description: "Run an UPDATE statement against a SQLite table",
			InputSchema: updateDataSchema,
			handle:      bind(h.updateData),
		},
		{
			Name:        ToolDeleteData,
			Description: "Run a DELETE statement against a SQLite table",
			InputSchema: deleteDataSchema,
			handle:      bind(h.deleteData),
		},
		{
			Name:        ToolMetaCommands,
			Description: "Run a SQLite meta command (.tables, .schema, .indexes, .pragma) to inspect database structure",
			InputSchema: metaCommandsSchema,
			handle:      bind(h.metaCommands),
		},
		{
			Name:        ToolTest,
			Description: "Echo a message back; used to check the tool channel",
			InputSchema: testToolSchema,
			handle:      bind(h.testTool),
		},
	}

	for i := range defs {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(defs[i].InputSchema))
		if err != nil {
			return nil, fmt.Errorf("tools: compile schema for %s: %w", defs[i].Name, err)
		}
		defs[i].validator = s
	}
	return defs, nil
}

// validate checks args against the definition's input schema.
func (d Definition) validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	res, err := d.validator.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return invalidArgs(err)
	}
	if res.Valid() {
		return nil
	}
	details := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		details = append(details, e.String())
	}
	return invalidArgs(fmt.Errorf("validation failed: %s", strings.Join(details, "; ")))
}
