package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hiretrack/internal/notifications"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

func newOutboxCommand(ctx *commandContext) *cobra.Command {
	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver notification events",
	}
	outboxCmd.AddCommand(newOutboxListCommand(ctx))
	outboxCmd.AddCommand(newOutboxRetryCommand(ctx))
	outboxCmd.AddCommand(newOutboxDrainCommand(ctx))
	return outboxCmd
}

func newOutboxListCommand(ctx *commandContext) *cobra.Command {
	var (
		status  string
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List outbox events",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := notifications.Status(strings.ToLower(strings.TrimSpace(status)))
			switch st {
			case notifications.StatusPending, notifications.StatusDelivered, notifications.StatusFailed:
			default:
				return services.Wrap(services.ErrValidation, "cli", "outbox list", fmt.Sprintf("unknown status %q", status), nil)
			}
			return ctx.withManager(func(mgr *workflow.Manager, s *store.Store) error {
				events, err := s.ListEvents(cmd.Context(), st, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, events)
				}
				if len(events) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s events\n", st)
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					transition := string(e.NewState)
					if e.OldState != "" {
						transition = string(e.OldState) + " -> " + transition
					}
					rows = append(rows, []string{
						strconv.FormatInt(e.Sequence, 10),
						strconv.FormatInt(e.ProcessID, 10),
						string(e.Kind),
						truncate(transition, 60),
						strconv.Itoa(len(e.Recipients)),
						strconv.Itoa(e.Attempts),
						truncate(dash(e.LastError), 40),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Seq", "Process", "Kind", "Transition", "Recipients", "Attempts", "Last error"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(notifications.StatusPending), "pending, delivered, or failed")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum events to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newOutboxRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [seq...]",
		Short: "Return failed events (all or the given ones) to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			seqs, err := parsePositiveIDs(args, "event")
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				n, err := st.RetryFailed(cmd.Context(), seqs...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Returned %d events to pending\n", n)
				return nil
			})
		},
	}
}

func newOutboxDrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Deliver pending events now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				result, err := mgr.DispatchNow(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d, retrying %d, parked %d, held %d\n",
					result.Delivered, result.Retrying, result.Parked, result.Held)
				return nil
			})
		},
	}
}
