package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/randosim/internal/config"
	"github.com/nvandessel/randosim/internal/mcp"
	"github.com/nvandessel/randosim/internal/pathutil"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the simulator as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  randosim_simulate  Run a simulation and return the aggregated report
  randosim_options   List what a game offers, or how a choice file fills it

Document paths given by clients must lie inside an allowed directory.
Every call is recorded in ~/.randosim/audit.jsonl without document contents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			auditDir := ""
			if !noAudit {
				homeDir, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				auditDir = filepath.Join(homeDir, config.Dir)
			}

			allowed, _ := cmd.Flags().GetStringSlice("allow-dir")
			if len(allowed) == 0 {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				if allowed, err = pathutil.DefaultDirs(wd); err != nil {
					return err
				}
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:        "randosim",
				Version:     version,
				Settings:    cfg,
				AuditDir:    auditDir,
				AllowedDirs: allowed,
				// stderr only: stdout carries the protocol
				Logger: newCmdLogger(cmd, cfg),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			return server.Run(ctx)
		},
	}

	cmd.Flags().Bool("no-audit", false, "Do not write the audit log")
	cmd.Flags().StringSlice("allow-dir", nil, "Directories clients may read documents from (default: working directory and ~/.randosim)")
	return cmd
}
