// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import "encoding/json"

// Input schemas advertised to clients and enforced before a handler runs.
var (
	createTableSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "dbPath": {"type": "string", "minLength": 1, "description": "Path to the SQLite database file"},
    "tableName": {"type": "string", "minLength": 1, "description": "Name of the table to create"},
    "columns": {
      "type": "array",
      "minItems": 1,
      "description": "Column definitions",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1, "description": "Column name"},
          "type": {"type": "string", "minLength": 1, "description": "Column type, e.g. INTEGER or VARCHAR(255)"},
          "constraints": {"type": "string", "description": "Constraints such as PRIMARY KEY or NOT NULL"}
        },
        "required": ["name", "type"]
      }
    }
  },
  "required": ["dbPath", "tableName", "columns"]
}`)

	insertDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "dbPath": {"type": "string", "minLength": 1, "description": "Path to the SQLite database file"},
    "tableName": {"type": "string", "minLength": 1, "description": "Target table"},
    "data": {"type": "object", "minProperties": 1, "description": "Column name to value map"}
  },
  "required": ["dbPath", "tableName", "data"]
}`)

	selectDataSchema = queryToolSchema("SELECT statement to run")
	updateDataSchema = queryToolSchema("UPDATE statement to run")
	deleteDataSchema = queryToolSchema("DELETE statement to run")

	getSchemaSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "dbPath": {"type": "string", "minLength": 1, "description": "Path to the SQLite database file"},
    "tableName": {"type": "string", "description": "Table to describe; omit to list all tables"}
  },
  "required": ["dbPath"]
}`)

	metaCommandsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "dbPath": {"type": "string", "minLength": 1, "description": "Path to the SQLite database file"},
    "command": {"type": "string", "enum": [".tables", ".schema", ".indexes", ".pragma"], "description": "Meta command"},
    "target": {"type": "string", "description": "Optional table, index or pragma name"}
  },
  "required": ["dbPath", "command"]
}`)

	testToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "message": {"type": "string", "description": "Message to echo back"}
  },
  "required": ["message"]
}`)
)

func queryToolSchema(queryDescription string) json.RawMessage {
	desc, _ := json.Marshal(queryDescription)
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "dbPath": {"type": "string", "minLength": 1, "description": "Path to the SQLite database file"},
    "query": {"type": "string", "minLength": 1, "description": ` + string(desc) + `},
    "params": {"type": "array", "description": "Positional parameters bound to ? placeholders"}
  },
  "required": ["dbPath", "query"]
}`)
}
