// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

// CoerceValue converts a decoded JSON value into something the driver can
// bind: nil stays NULL, booleans become 0/1, integral numbers become
// integers, objects and arrays are stored as JSON text.
func CoerceValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case float32:
		return CoerceValue(float64(x))
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64, string, []byte:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// CoerceParams applies CoerceValue to every parameter.
func CoerceParams(params []any) []any {
	if len(params) == 0 {
		return nil
	}
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = CoerceValue(p)
	}
	return out
}

// normalizeColumn turns a scanned driver value into a JSON friendly one.
func normalizeColumn(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}
