// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/tools"
)

func newToolsCmd(st *cliState) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbm := database.NewManager(managerOptions(st.cfg))
			defer func() { _ = dbm.Close() }()

			d, err := tools.NewDispatcher(dbm)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(d.ListTools(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode tool catalog: %w", err)
			}
			data = append(data, '\n')

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := renameio.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d tools to %s\n", len(d.ListTools()), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the catalog to this file atomically instead of stdout")
	return cmd
}
