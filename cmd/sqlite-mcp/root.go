// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/sqlite-mcp/internal/config"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
)

// cliState is shared by every subcommand after the root pre-run.
type cliState struct {
	configPath string
	loader     *config.Loader
	cfg        config.AppConfig
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:           "sqlite-mcp",
		Short:         "SQLite tools over the Model Context Protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Safe defaults until the configuration is loaded.
			xglog.Configure(xglog.Config{Output: cmd.ErrOrStderr(), Version: version})

			st.loader = config.NewLoader(st.configPath, version)
			cfg, err := st.loader.Load()
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			st.cfg = cfg

			xglog.Configure(xglog.Config{
				Level:   cfg.LogLevel,
				Output:  cmd.ErrOrStderr(),
				Service: cfg.LogService,
				Version: cfg.Version,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file (YAML)")

	root.AddCommand(
		newServeCmd(st),
		newToolsCmd(st),
		newVerifyCmd(),
		newApplyCmd(st),
		newVersionCmd(),
	)
	return root
}
