// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/sqlbuild"
)

// Meta commands accepted by meta_commands.
const (
	MetaTables  = ".tables"
	MetaSchema  = ".schema"
	MetaIndexes = ".indexes"
	MetaPragma  = ".pragma"
)

func (h *handlers) metaCommands(ctx context.Context, args metaCommandArgs) (Result, error) {
	var (
		out MetaResult
		err error
	)
	switch args.Command {
	case MetaTables:
		out = h.metaTables(ctx, args.DBPath)
	case MetaSchema:
		out = h.metaSchema(ctx, args.DBPath, args.Target)
	case MetaIndexes:
		out = h.metaIndexes(ctx, args.DBPath, args.Target)
	case MetaPragma:
		out, err = h.metaPragma(ctx, args.DBPath, args.Target)
	default:
		err = invalidArgs(fmt.Errorf("unsupported command: %s", args.Command))
	}
	if err != nil {
		return Result{}, err
	}
	return jsonResult(out, !out.Success), nil
}

func (h *handlers) metaTables(ctx context.Context, path string) MetaResult {
	res := h.exec.Execute(ctx, path, sqlbuild.MetaTablesQuery, nil)
	if !res.Success {
		return MetaResult{Error: res.Error}
	}
	lines := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		lines = append(lines, fmt.Sprintf("%s (%s)", stringOf(row["name"]), stringOf(row["type"])))
	}
	return MetaResult{Success: true, Result: orElse(strings.Join(lines, "\n"), "No tables or views found")}
}

func (h *handlers) metaSchema(ctx context.Context, path, target string) MetaResult {
	q, params := sqlbuild.MetaSchema(target)
	res := h.exec.Execute(ctx, path, q, params)
	if !res.Success {
		return MetaResult{Error: res.Error}
	}
	ddl := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		if s := stringOf(row["sql"]); s != "" {
			ddl = append(ddl, s)
		}
	}
	text := ""
	if len(ddl) > 0 {
		text = strings.Join(ddl, ";\n\n") + ";"
	}
	empty := "No schema found"
	if target != "" {
		empty = fmt.Sprintf("No schema found for '%s'", target)
	}
	return MetaResult{Success: true, Result: orElse(text, empty)}
}

func (h *handlers) metaIndexes(ctx context.Context, path, target string) MetaResult {
	q, params := sqlbuild.MetaIndexes(target)
	res := h.exec.Execute(ctx, path, q, params)
	if !res.Success {
		return MetaResult{Error: res.Error}
	}
	blocks := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		block := fmt.Sprintf("%s on %s", stringOf(row["name"]), stringOf(row["tbl_name"]))
		if s := stringOf(row["sql"]); s != "" {
			block += "\n  " + s
		}
		blocks = append(blocks, block)
	}
	empty := "No indexes found"
	if target != "" {
		empty = fmt.Sprintf("No indexes on table '%s'", target)
	}
	return MetaResult{Success: true, Result: orElse(strings.Join(blocks, "\n\n"), empty)}
}

func (h *handlers) metaPragma(ctx context.Context, path, target string) (MetaResult, error) {
	if target == "" {
		return h.pragmaOverview(ctx, path), nil
	}
	q, err := sqlbuild.Pragma(target)
	if err != nil {
		return MetaResult{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, path, q, nil)
	if !res.Success {
		return MetaResult{Error: res.Error}, nil
	}
	lines := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		lines = append(lines, joinRow(row, res.Columns))
	}
	return MetaResult{Success: true, Result: orElse(strings.Join(lines, "\n"), "PRAGMA returned no rows")}, nil
}

// pragmaOverview reports the default pragma set. Pragmas that fail or return
// nothing are skipped.
func (h *handlers) pragmaOverview(ctx context.Context, path string) MetaResult {
	var lines []string
	for _, name := range sqlbuild.DefaultPragmas {
		res := h.exec.Execute(ctx, path, "PRAGMA "+name, nil)
		if !res.Success || len(res.Data) == 0 {
			continue
		}
		lines = append(lines, name+":")
		for _, row := range res.Data {
			lines = append(lines, "  "+joinRow(row, res.Columns))
		}
		lines = append(lines, "")
	}
	return MetaResult{
		Success: true,
		Result:  orElse(strings.TrimSpace(strings.Join(lines, "\n")), "No PRAGMA information available"),
	}
}

func joinRow(row database.Row, columns []string) string {
	values := make([]string, 0, len(columns))
	for _, c := range columns {
		values = append(values, stringOf(row[c]))
	}
	return strings.Join(values, " | ")
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
