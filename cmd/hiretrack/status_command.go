package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"hiretrack/internal/daemon"
	"hiretrack/internal/notifications"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/preflight"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, database, and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				running, lockErr := daemon.Locked(cfg.LockPath())
				summary := mgr.Status(c)
				health := mgr.Health(c)
				checks := preflight.RunAll(c, cfg)

				if jsonOut {
					components := make(map[string]any, len(health))
					for _, h := range health {
						components[h.Name] = map[string]any{"ready": h.Ready, "detail": h.Detail}
					}
					preflightJSON := make(map[string]any, len(checks))
					for _, r := range checks {
						preflightJSON[r.Name] = map[string]any{"passed": r.Passed, "detail": r.Detail}
					}
					return writeJSON(cmd, map[string]any{
						"daemon_running": running,
						"preflight":      preflightJSON,
						"database":       st.Path(),
						"sink":           summary.Sink,
						"processes":      summary.Pipeline,
						"outbox":         summary.OutboxStats,
						"components":     components,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("hiretrack", colorize) {
					fmt.Fprintln(out, line)
				}
				switch {
				case lockErr != nil:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, lockErr.Error(), colorize))
				case running:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "Running", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "Not running; CLI delivers events itself", colorize))
				}
				for _, h := range health {
					fmt.Fprintln(out, renderStatusLine(h.Name, healthKind(h), h.Detail, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, st.Path(), colorize))
				for _, r := range checks {
					kind := statusOK
					if !r.Passed {
						kind = statusWarn
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Pipeline", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Open", statusInfo, strconv.Itoa(summary.Pipeline.Open), colorize))
				fmt.Fprintln(out, renderStatusLine("Closed", statusInfo, strconv.Itoa(summary.Pipeline.Closed), colorize))
				for _, state := range pipeline.ProcessStates() {
					if n := summary.Pipeline.ByState[state]; n > 0 {
						fmt.Fprintf(out, "%s%-*s %d\n", statusIndent+statusIndent, statusLabelWidth+12, state, n)
					}
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Outbox", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Sink", statusInfo, summary.Sink, colorize))
				statuses := make([]string, 0, len(summary.OutboxStats))
				for s := range summary.OutboxStats {
					statuses = append(statuses, string(s))
				}
				sort.Strings(statuses)
				for _, s := range statuses {
					n := summary.OutboxStats[notifications.Status(s)]
					kind := statusInfo
					if notifications.Status(s) == notifications.StatusFailed && n > 0 {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(s, kind, strconv.Itoa(n), colorize))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func healthKind(h workflow.ComponentHealth) statusKind {
	if h.Ready {
		return statusOK
	}
	if h.Name == "notifications" {
		return statusWarn
	}
	return statusError
}
