package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

func newInterviewCommand(ctx *commandContext) *cobra.Command {
	interviewCmd := &cobra.Command{
		Use:     "interview",
		Aliases: []string{"interviews", "itw"},
		Short:   "Plan interviews and record their outcome",
	}

	interviewCmd.AddCommand(newInterviewListCommand(ctx))
	interviewCmd.AddCommand(newInterviewAddCommand(ctx))
	interviewCmd.AddCommand(newInterviewPlanCommand(ctx))
	interviewCmd.AddCommand(newInterviewAssignCommand(ctx))
	interviewCmd.AddCommand(newInterviewOutcomeCommand(ctx))
	interviewCmd.AddCommand(newInterviewMinuteCommand(ctx))

	return interviewCmd
}

func newInterviewListCommand(ctx *commandContext) *cobra.Command {
	var (
		processID int64
		states    []string
		attention bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				filter := store.InterviewFilter{ProcessID: processID}
				for _, raw := range states {
					state, ok := pipeline.ParseInterviewState(raw)
					if !ok {
						return services.Wrap(services.ErrValidation, "cli", "interview list", fmt.Sprintf("unknown state %q", raw), nil)
					}
					filter.States = append(filter.States, state)
				}
				interviews, err := st.Read().ListInterviews(c, filter)
				if err != nil {
					return err
				}
				if user, ok, err := ctx.actor(c, st); err != nil {
					return err
				} else if ok {
					processes, err := st.Read().ListProcesses(c, store.ProcessFilter{})
					if err != nil {
						return err
					}
					byID := make(map[int64]pipeline.Process, len(processes))
					for _, p := range processes {
						byID[p.ID] = p
					}
					interviews = pipeline.InterviewsForUser(user, interviews, byID)
				}
				now := time.Now()
				lk, err := loadLookups(c, st)
				if err != nil {
					return err
				}
				views := make([]interviewView, 0, len(interviews))
				for _, itw := range interviews {
					if attention && !itw.NeedsAttention(now) {
						continue
					}
					views = append(views, lk.interviewView(itw))
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No interviews")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						strconv.FormatInt(v.ProcessID, 10),
						strconv.Itoa(v.Rank),
						v.State,
						dash(v.PlannedDate),
						dash(strings.Join(v.Interviewers, ",")),
						yesNo(v.HasMinute),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Process", "Rank", "State", "Planned", "Interviewers", "Minute"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&processID, "process", 0, "Filter by process id")
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by interview state (repeatable)")
	cmd.Flags().BoolVar(&attention, "attention", false, "Only interviews waiting on someone to act")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newInterviewAddCommand(ctx *commandContext) *cobra.Command {
	var (
		interviewers []string
		when         string
	)

	cmd := &cobra.Command{
		Use:   "add <process-id>",
		Short: "Add the next interview to a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processID, err := parseID(args[0], "process")
			if err != nil {
				return err
			}
			planned, err := optionalWhen(when)
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				ids, err := resolveTrigrams(c, st, interviewers)
				if err != nil {
					return err
				}
				opts, err := ctx.writeOptions(c, st)
				if err != nil {
					return err
				}
				itw, err := mgr.AddInterview(c, processID, ids, planned, opts...)
				if err != nil {
					return err
				}
				return printInterviewResult(cmd, st, itw)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&interviewers, "interviewer", "i", nil, "Interviewer trigrams (repeatable)")
	cmd.Flags().StringVarP(&when, "date", "d", "", "Planned date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	return cmd
}

func newInterviewPlanCommand(ctx *commandContext) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "plan <interview-id> [date]",
		Short: "Set or clear the planned date of an interview",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var planned *time.Time
			if len(args) == 2 && !clear {
				t, err := parseWhen(args[1])
				if err != nil {
					return err
				}
				planned = &t
			} else if !clear {
				return services.Wrap(services.ErrValidation, "cli", "interview plan", "a date or --clear is required", nil)
			}
			return runInterviewWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Interview, error) {
				return mgr.PlanInterview(c, id, planned, opts...)
			})
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the planned date")
	return cmd
}

func newInterviewAssignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <interview-id> <trigram>...",
		Short: "Replace the interviewers of an interview",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterviewWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Interview, error) {
				ids, err := resolveTrigrams(c, mgr.Store(), args[1:])
				if err != nil {
					return pipeline.Interview{}, err
				}
				return mgr.AssignInterviewers(c, id, ids, opts...)
			})
		},
	}
}

func newInterviewOutcomeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outcome <interview-id> <GO|NO_GO>",
		Short: "Record the interview decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterviewWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Interview, error) {
				return mgr.RecordOutcome(c, id, args[1], opts...)
			})
		},
	}
}

func newInterviewMinuteCommand(ctx *commandContext) *cobra.Command {
	var (
		text      string
		nextGoal  string
		suggested string
	)
	cmd := &cobra.Command{
		Use:   "minute <interview-id>",
		Short: "Record the interview minute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterviewWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Interview, error) {
				var suggestedID *int64
				if strings.TrimSpace(suggested) != "" {
					sid, err := resolveTrigram(c, mgr.Store(), suggested)
					if err != nil {
						return pipeline.Interview{}, err
					}
					suggestedID = &sid
				}
				return mgr.RecordMinute(c, id, text, nextGoal, suggestedID, opts...)
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Minute text")
	cmd.Flags().StringVar(&nextGoal, "next-goal", "", "Goal of the next interview")
	cmd.Flags().StringVar(&suggested, "suggest", "", "Suggested next interviewer trigram")
	return cmd
}

type interviewWrite func(context.Context, *workflow.Manager, int64, []workflow.WriteOption) (pipeline.Interview, error)

func runInterviewWrite(cmd *cobra.Command, ctx *commandContext, rawID string, write interviewWrite) error {
	id, err := parseID(rawID, "interview")
	if err != nil {
		return err
	}
	return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
		c := cmd.Context()
		opts, err := ctx.writeOptions(c, st)
		if err != nil {
			return err
		}
		itw, err := write(c, mgr, id, opts)
		if err != nil {
			return err
		}
		return printInterviewResult(cmd, st, itw)
	})
}

func printInterviewResult(cmd *cobra.Command, st *store.Store, itw pipeline.Interview) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Interview %d (rank %d): %s\n", itw.ID, itw.Rank, itw.State)
	p, err := st.Read().Process(cmd.Context(), itw.ProcessID)
	if err != nil {
		return err
	}
	printProcessSummary(cmd, st, p)
	return nil
}
