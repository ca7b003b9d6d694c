// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/sqlite-mcp/internal/persistence/sqlite"
)

func newVerifyCmd() *cobra.Command {
	var (
		path string
		mode string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run an integrity check against a database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(path); err != nil {
				return &exitError{code: 2, err: fmt.Errorf("database not accessible: %w", err)}
			}

			issues, err := sqlite.VerifyIntegrity(cmd.Context(), path, mode)
			if err != nil {
				return &exitError{code: 2, err: err}
			}

			w := cmd.OutOrStdout()
			if len(issues) > 0 {
				fmt.Fprintf(w, "FAIL %s (%d issues)\n", path, len(issues))
				for _, issue := range issues {
					fmt.Fprintf(w, "  - %s\n", issue)
				}
				return &exitError{code: 1}
			}
			fmt.Fprintf(w, "OK %s (%s)\n", path, modeOrDefault(mode))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "database file to check")
	cmd.Flags().StringVar(&mode, "mode", sqlite.ModeQuick, "check mode: quick or full")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return sqlite.ModeQuick
	}
	return mode
}
