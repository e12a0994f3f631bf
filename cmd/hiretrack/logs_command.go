package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hiretrack/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow    bool
		lines     int
		daemonLog bool
		processID int64
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display CLI or daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := "hiretrack.log"
			if daemonLog {
				name = "hiretrackd.log"
			}
			path := filepath.Join(cfg.Paths.LogDir, name)

			opts := logs.TailOptions{Offset: -1, Limit: lines, Follow: follow, Wait: time.Second}
			if lines <= 0 {
				opts.Offset = 0
			}
			if processID > 0 {
				opts.Match = logs.ProcessMatcher(processID)
			}

			c := cmd.Context()
			printed := false
			for {
				result, err := logs.Tail(c, path, opts)
				if err != nil {
					if c.Err() != nil {
						return nil
					}
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, line := range result.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
					}
					return nil
				}
				opts.Offset = result.Offset
				select {
				case <-c.Done():
					return nil
				default:
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&daemonLog, "daemon", false, "Read the daemon log instead of the CLI log")
	cmd.Flags().Int64Var(&processID, "process", 0, "Only entries for this process")
	return cmd
}
