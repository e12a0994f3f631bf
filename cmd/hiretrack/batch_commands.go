package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"hiretrack/internal/anonymize"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Move past planned interviews to WAIT_INFORMATION",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if strings.TrimSpace(at) != "" {
				t, err := parseWhen(at)
				if err != nil {
					return err
				}
				now = t
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				result, err := mgr.Sweep(cmd.Context(), now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Examined %d planned interviews, moved %d, %d process state changes\n",
					result.Examined, result.Moved, result.StateChanges)
				if result.Failed > 0 {
					return services.Wrap(services.ErrTransient, "cli", "sweep", fmt.Sprintf("%d interviews failed; see logs", result.Failed), nil)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "now", "", "Sweep as of this date instead of the current time")
	return cmd
}

// confirmFunc asks the operator before a destructive run.
type confirmFunc func(label string, in io.ReadCloser, out io.WriteCloser) (bool, error)

func promptConfirm(label string, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// confirm is replaced in tests.
var confirm confirmFunc = promptConfirm

func newAnonymizeCommand(ctx *commandContext) *cobra.Command {
	var (
		cutoffMonths int
		dryRun       bool
		includeHired bool
		yes          bool
		jsonOut      bool
	)
	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Scrub candidates whose processes all ended before the retention cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			months := cfg.Anonymize.CutoffMonths
			if cmd.Flags().Changed("cutoff-months") {
				if cutoffMonths <= 0 {
					return services.Wrap(services.ErrValidation, "cli", "anonymize", "--cutoff-months must be positive", nil)
				}
				months = cutoffMonths
			}
			cutoff := time.Now().AddDate(0, -months, 0)

			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				var opts []workflow.AnonymizeOption
				if includeHired {
					opts = append(opts, workflow.IncludeHired())
				}

				preview, err := mgr.Anonymize(c, cutoff, append(opts, workflow.WithDryRun())...)
				if err != nil {
					return err
				}
				if dryRun || len(preview.Anonymized) == 0 {
					return reportAnonymize(cmd, preview, cutoff, jsonOut)
				}
				if !yes {
					label := fmt.Sprintf("Anonymize %d candidate(s) with processes ended before %s",
						len(preview.Anonymized), cutoff.Format("2006-01-02"))
					ok, err := confirm(label, io.NopCloser(cmd.InOrStdin()), nopWriteCloser{cmd.OutOrStdout()})
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
						return nil
					}
				}
				result, err := mgr.Anonymize(c, cutoff, opts...)
				if err != nil {
					return err
				}
				if err := reportAnonymize(cmd, result, cutoff, jsonOut); err != nil {
					return err
				}
				if result.Failed > 0 {
					return services.Wrap(services.ErrTransient, "cli", "anonymize", fmt.Sprintf("%d candidates failed; see logs", result.Failed), nil)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&cutoffMonths, "cutoff-months", 0, "Override anonymize.cutoff_months")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List eligible candidates without changing anything")
	cmd.Flags().BoolVar(&includeHired, "include-hired", false, "Also anonymize hired candidates")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func reportAnonymize(cmd *cobra.Command, result workflow.AnonymizeResult, cutoff time.Time, jsonOut bool) error {
	if jsonOut {
		skipped := make(map[string]int, len(result.Skipped))
		for reason, count := range result.Skipped {
			skipped[string(reason)] = count
		}
		return writeJSON(cmd, map[string]any{
			"cutoff":     cutoff.Format("2006-01-02"),
			"dry_run":    result.DryRun,
			"examined":   result.Examined,
			"anonymized": result.Anonymized,
			"skipped":    skipped,
			"failed":     result.Failed,
		})
	}
	out := cmd.OutOrStdout()
	verb := "Anonymized"
	if result.DryRun {
		verb = "Would anonymize"
	}
	fmt.Fprintf(out, "%s %d of %d candidates (cutoff %s)\n", verb, len(result.Anonymized), result.Examined, cutoff.Format("2006-01-02"))
	for _, reason := range []anonymize.Reason{
		anonymize.ReasonOpenProcess,
		anonymize.ReasonTooRecent,
		anonymize.ReasonHired,
		anonymize.ReasonNoProcess,
		anonymize.ReasonAlreadyAnonymized,
	} {
		if n := result.Skipped[reason]; n > 0 {
			fmt.Fprintf(out, "  skipped %-20s %d\n", string(reason)+":", n)
		}
	}
	return nil
}
