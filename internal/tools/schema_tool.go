// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"context"
	"fmt"

	"github.com/ManuGH/sqlite-mcp/internal/sqlbuild"
)

func (h *handlers) getSchema(ctx context.Context, args getSchemaArgs) (Result, error) {
	var (
		out SchemaResult
		err error
	)
	if args.TableName == "" {
		out = h.listTables(ctx, args.DBPath)
	} else {
		out, err = h.describeTable(ctx, args.DBPath, args.TableName)
		if err != nil {
			return Result{}, err
		}
	}
	return jsonResult(out, !out.Success), nil
}

func (h *handlers) listTables(ctx context.Context, path string) SchemaResult {
	res := h.exec.Execute(ctx, path, sqlbuild.ListTablesQuery, nil)
	if !res.Success {
		return SchemaResult{Error: res.Error}
	}
	tables := make([]string, 0, len(res.Data))
	for _, row := range res.Data {
		tables = append(tables, stringOf(row["name"]))
	}
	return SchemaResult{Success: true, Tables: tables}
}

func (h *handlers) describeTable(ctx context.Context, path, table string) (SchemaResult, error) {
	exists := h.exec.Execute(ctx, path, sqlbuild.TableExistsQuery, []any{table})
	if !exists.Success {
		return SchemaResult{Error: exists.Error}, nil
	}
	if len(exists.Data) == 0 {
		return SchemaResult{Error: fmt.Sprintf("table '%s' does not exist", table)}, nil
	}

	q, err := sqlbuild.TableInfo(table)
	if err != nil {
		return SchemaResult{}, invalidArgs(err)
	}
	info := h.exec.Execute(ctx, path, q, nil)
	if !info.Success {
		return SchemaResult{Error: info.Error}, nil
	}

	var ddl string
	if d := h.exec.Execute(ctx, path, sqlbuild.TableDDLQuery, []any{table}); d.Success && len(d.Data) > 0 {
		ddl = stringOf(d.Data[0]["sql"])
	}

	columns := make([]ColumnInfo, 0, len(info.Data))
	for _, row := range info.Data {
		columns = append(columns, ColumnInfo{
			Name:       stringOf(row["name"]),
			Type:       stringOf(row["type"]),
			NotNull:    truthy(row["notnull"]),
			Default:    row["dflt_value"],
			PrimaryKey: truthy(row["pk"]),
		})
	}

	return SchemaResult{
		Success: true,
		Tables:  []string{table},
		Schema:  ddl,
		Columns: columns,
	}, nil
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	default:
		return true
	}
}
