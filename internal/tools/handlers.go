// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"context"
	"fmt"

	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/sqlbuild"
)

type handlers struct {
	exec Executor
}

func (h *handlers) createTable(ctx context.Context, args createTableArgs) (Result, error) {
	q, err := sqlbuild.CreateTable(args.TableName, args.Columns)
	if err != nil {
		return Result{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, args.DBPath, q, nil)
	if !res.Success {
		return textResult("Failed to create table: "+res.Error, res, true), nil
	}
	return textResult(fmt.Sprintf("Table '%s' created successfully.", args.TableName), res, false), nil
}

func (h *handlers) insertData(ctx context.Context, args insertDataArgs) (Result, error) {
	q, values, err := sqlbuild.Insert(args.TableName, args.Data)
	if err != nil {
		return Result{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, args.DBPath, q, values)
	if !res.Success {
		return textResult("Failed to insert data: "+res.Error, res, true), nil
	}
	return textResult(fmt.Sprintf("Data inserted successfully. Inserted row ID: %d", deref(res.LastInsertID)), res, false), nil
}

func (h *handlers) selectData(ctx context.Context, args queryArgs) (Result, error) {
	if err := sqlbuild.GuardSelect(args.Query); err != nil {
		return Result{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, args.DBPath, args.Query, args.Params)
	if res.Success && res.Data == nil {
		res.Data = []database.Row{}
	}
	return jsonResult(res, !res.Success), nil
}

func (h *handlers) updateData(ctx context.Context, args queryArgs) (Result, error) {
	if err := sqlbuild.GuardUpdate(args.Query); err != nil {
		return Result{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, args.DBPath, args.Query, args.Params)
	if !res.Success {
		return textResult("Failed to update data: "+res.Error, res, true), nil
	}
	return textResult(fmt.Sprintf("Data updated successfully. Rows affected: %d", deref(res.RowsAffected)), res, false), nil
}

func (h *handlers) deleteData(ctx context.Context, args queryArgs) (Result, error) {
	if err := sqlbuild.GuardDelete(args.Query); err != nil {
		return Result{}, invalidArgs(err)
	}
	res := h.exec.Execute(ctx, args.DBPath, args.Query, args.Params)
	if !res.Success {
		return textResult("Failed to delete data: "+res.Error, res, true), nil
	}
	return textResult(fmt.Sprintf("Data deleted successfully. Rows affected: %d", deref(res.RowsAffected)), res, false), nil
}

func (h *handlers) testTool(_ context.Context, args testToolArgs) (Result, error) {
	return textResult("test succeeded: "+args.Message, nil, false), nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
