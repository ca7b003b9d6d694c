// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/sqlite-mcp/internal/database"
)

// opsFile is the YAML layout read by apply.
type opsFile struct {
	Operations []database.Operation `yaml:"operations"`
}

func loadOperations(path string) ([]database.Operation, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f opsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Operations) == 0 {
		return nil, fmt.Errorf("%s: no operations", path)
	}
	return f.Operations, nil
}

func newApplyCmd(st *cliState) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Run the statements of a YAML file in one transaction",
		Long: "Run every statement listed under 'operations' in FILE against the database " +
			"inside a single transaction. Any failure rolls back the whole batch.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := loadOperations(args[0])
			if err != nil {
				return &exitError{code: 2, err: err}
			}

			dbm := database.NewManager(managerOptions(st.cfg))
			defer func() { _ = dbm.Close() }()

			res := dbm.RunTransaction(cmd.Context(), dbPath, ops)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database file to apply the statements to")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
