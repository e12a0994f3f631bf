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

func newProcessCommand(ctx *commandContext) *cobra.Command {
	processCmd := &cobra.Command{
		Use:     "process",
		Aliases: []string{"processes"},
		Short:   "Inspect and manage recruitment processes",
	}

	processCmd.AddCommand(newProcessListCommand(ctx))
	processCmd.AddCommand(newProcessShowCommand(ctx))
	processCmd.AddCommand(newProcessCreateCommand(ctx))
	processCmd.AddCommand(newProcessStateCommand(ctx))
	processCmd.AddCommand(newProcessCloseCommand(ctx))
	processCmd.AddCommand(newProcessReopenCommand(ctx))
	processCmd.AddCommand(newProcessSubscribeCommand(ctx, true))
	processCmd.AddCommand(newProcessSubscribeCommand(ctx, false))
	processCmd.AddCommand(newProcessNotesCommand(ctx))

	return processCmd
}

func newProcessListCommand(ctx *commandContext) *cobra.Command {
	var (
		all         bool
		attention   bool
		states      []string
		candidateID int64
		subsidiary  string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open and recently closed processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				filter := store.ProcessFilter{CandidateID: candidateID}
				for _, raw := range states {
					state, ok := pipeline.ParseProcessState(raw)
					if !ok {
						return services.Wrap(services.ErrValidation, "cli", "process list", fmt.Sprintf("unknown state %q", raw), nil)
					}
					filter.States = append(filter.States, state)
				}
				if strings.TrimSpace(subsidiary) != "" {
					sub, err := st.Read().SubsidiaryByCode(c, subsidiary)
					if err != nil {
						return err
					}
					filter.SubsidiaryID = sub.ID
				}

				processes, err := listVisibleProcesses(c, ctx, st, filter)
				if err != nil {
					return err
				}
				cfg, _ := ctx.ensureConfig()
				today := time.Now()
				window := cfg.Dashboard.RecentlyClosedDays
				shown := processes[:0]
				for _, p := range processes {
					if !all && !p.IsOpen() && !p.RecentlyClosed(today, window) {
						continue
					}
					if attention && !p.NeedsAttention(today) {
						continue
					}
					shown = append(shown, p)
				}

				lk, err := loadLookups(c, st)
				if err != nil {
					return err
				}
				views := make([]processView, 0, len(shown))
				for _, p := range shown {
					views = append(views, lk.processView(c, st, p, today))
				}
				if jsonOut {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No processes")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Candidate", "Subsidiary", "State", "Responsible", "Start", "End", ""},
					buildProcessRows(views),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include processes closed before the recent window")
	cmd.Flags().BoolVar(&attention, "attention", false, "Only processes waiting on someone to act")
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by process state (repeatable)")
	cmd.Flags().Int64Var(&candidateID, "candidate", 0, "Filter by candidate id")
	cmd.Flags().StringVar(&subsidiary, "subsidiary", "", "Filter by subsidiary code")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func listVisibleProcesses(c context.Context, ctx *commandContext, st *store.Store, filter store.ProcessFilter) ([]pipeline.Process, error) {
	user, ok, err := ctx.actor(c, st)
	if err != nil {
		return nil, err
	}
	if ok {
		return st.ListProcessesForUser(c, user, filter)
	}
	return st.Read().ListProcesses(c, filter)
}

func buildProcessRows(views []processView) [][]string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		marker := ""
		if v.NeedsAttention {
			marker = "!"
		}
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			truncate(dash(v.Candidate), 28),
			v.Subsidiary,
			v.State,
			dash(strings.Join(v.Responsible, ",")),
			v.StartDate,
			dash(v.EndDate),
			marker,
		})
	}
	return rows
}

func newProcessShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <process-id>",
		Short: "Show a process with its interviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "process")
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				p, err := st.Read().Process(c, id)
				if err != nil {
					return err
				}
				if user, ok, err := ctx.actor(c, st); err != nil {
					return err
				} else if ok && !pipeline.CanSee(user, p) {
					return services.Wrap(services.ErrNotFound, "cli", "process show", fmt.Sprintf("process %d", id), nil)
				}
				interviews, err := st.Read().InterviewsByProcess(c, id)
				if err != nil {
					return err
				}
				lk, err := loadLookups(c, st)
				if err != nil {
					return err
				}
				view := lk.processView(c, st, p, time.Now())
				for _, itw := range interviews {
					view.Interviews = append(view.Interviews, lk.interviewView(itw))
				}
				if jsonOut {
					return writeJSON(cmd, view)
				}
				printProcessDetail(cmd, view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func printProcessDetail(cmd *cobra.Command, view processView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Process #%d\n", view.ID)
	fmt.Fprintf(out, "  Candidate:    %s (#%d)\n", dash(view.Candidate), view.CandidateID)
	fmt.Fprintf(out, "  Subsidiary:   %s\n", view.Subsidiary)
	fmt.Fprintf(out, "  State:        %s\n", view.State)
	fmt.Fprintf(out, "  Responsible:  %s\n", dash(strings.Join(view.Responsible, ",")))
	fmt.Fprintf(out, "  Subscribers:  %s\n", dash(strings.Join(view.Subscribers, ",")))
	fmt.Fprintf(out, "  Started:      %s\n", view.StartDate)
	fmt.Fprintf(out, "  Ended:        %s\n", dash(view.EndDate))
	if view.Notes != "" {
		fmt.Fprintf(out, "  Notes:        %s\n", view.Notes)
	}
	if view.ClosedComment != "" {
		fmt.Fprintf(out, "  Comment:      %s\n", view.ClosedComment)
	}
	if len(view.Interviews) == 0 {
		fmt.Fprintln(out, "  No interviews")
		return
	}
	rows := make([][]string, 0, len(view.Interviews))
	for _, itw := range view.Interviews {
		rows = append(rows, []string{
			strconv.FormatInt(itw.ID, 10),
			strconv.Itoa(itw.Rank),
			itw.State,
			dash(itw.PlannedDate),
			dash(strings.Join(itw.Interviewers, ",")),
			yesNo(itw.HasMinute),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Rank", "State", "Planned", "Interviewers", "Minute"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintln(out)
}

func printProcessSummary(cmd *cobra.Command, st *store.Store, p pipeline.Process) {
	consultants := map[int64]pipeline.Consultant{}
	if byID, err := st.Read().ConsultantsByID(cmd.Context(), p.Responsible); err == nil {
		consultants = byID
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Process %d: %s (responsible: %s)\n",
		p.ID, p.State, trigramLabel(p.Responsible, consultants))
}

func newProcessCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		candidateID    int64
		subsidiary     string
		sourceID       int64
		contractTypeID int64
		salary         int
		duration       int
		contractStart  string
		startDate      string
		notes          string
		subscribers    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a process for a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if candidateID <= 0 || strings.TrimSpace(subsidiary) == "" {
				return services.Wrap(services.ErrValidation, "cli", "process create", "--candidate and --subsidiary are required", nil)
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				sub, err := st.Read().SubsidiaryByCode(c, subsidiary)
				if err != nil {
					return err
				}
				in := workflow.ProcessInput{
					CandidateID:       candidateID,
					SubsidiaryID:      sub.ID,
					OtherInformations: notes,
				}
				if sourceID > 0 {
					in.SourceID = &sourceID
				}
				if contractTypeID > 0 {
					in.ContractTypeID = &contractTypeID
				}
				if cmd.Flags().Changed("salary") {
					in.SalaryExpectation = &salary
				}
				if cmd.Flags().Changed("duration") {
					in.ContractDuration = &duration
				}
				if in.ContractStartDate, err = optionalWhen(contractStart); err != nil {
					return err
				}
				if strings.TrimSpace(startDate) != "" {
					if in.StartDate, err = parseWhen(startDate); err != nil {
						return err
					}
				}
				if in.Subscribers, err = resolveTrigrams(c, st, subscribers); err != nil {
					return err
				}
				opts, err := ctx.writeOptions(c, st)
				if err != nil {
					return err
				}
				p, err := mgr.CreateProcess(c, in, opts...)
				if err != nil {
					return err
				}
				printProcessSummary(cmd, st, p)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&candidateID, "candidate", 0, "Candidate id")
	cmd.Flags().StringVar(&subsidiary, "subsidiary", "", "Subsidiary code")
	cmd.Flags().Int64Var(&sourceID, "source", 0, "Source id")
	cmd.Flags().Int64Var(&contractTypeID, "contract-type", 0, "Contract type id")
	cmd.Flags().IntVar(&salary, "salary", 0, "Salary expectation")
	cmd.Flags().IntVar(&duration, "duration", 0, "Contract duration in months")
	cmd.Flags().StringVar(&contractStart, "contract-start", "", "Expected contract start date")
	cmd.Flags().StringVar(&startDate, "start", "", "Process start date (defaults to today)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	cmd.Flags().StringSliceVar(&subscribers, "subscribe", nil, "Consultant trigrams to notify (repeatable)")
	return cmd
}

func newProcessStateCommand(ctx *commandContext) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "state <process-id> <state>",
		Short: "Set an explicit state (HIRED, NO_GO, CANDIDATE_DECLINED, JOB_OFFER, JOB_OFFER_DECLINED, OTHER)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Process, error) {
				return mgr.SetProcessState(c, id, strings.ToUpper(args[1]), comment, opts...)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Closing comment")
	return cmd
}

func newProcessCloseCommand(ctx *commandContext) *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "close <process-id> <state>",
		Short: "Close a process (HIRED, NO_GO, CANDIDATE_DECLINED, JOB_OFFER_DECLINED, OTHER)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Process, error) {
				return mgr.CloseProcess(c, id, strings.ToUpper(args[1]), comment, opts...)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "Closing comment")
	return cmd
}

func newProcessReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <process-id>",
		Short: "Reopen a closed process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Process, error) {
				return mgr.ReopenProcess(c, id, opts...)
			})
		},
	}
}

func newProcessSubscribeCommand(ctx *commandContext, subscribe bool) *cobra.Command {
	use, short := "subscribe", "Notify a consultant about every change"
	if !subscribe {
		use, short = "unsubscribe", "Stop notifying a consultant"
	}
	return &cobra.Command{
		Use:   use + " <process-id> <trigram>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Process, error) {
				consultantID, err := resolveTrigram(c, mgr.Store(), args[1])
				if err != nil {
					return pipeline.Process{}, err
				}
				if subscribe {
					return mgr.Subscribe(c, id, consultantID, opts...)
				}
				return mgr.Unsubscribe(c, id, consultantID, opts...)
			})
		},
	}
}

func newProcessNotesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <process-id> <text>",
		Short: "Replace the free-text notes of a process",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessWrite(cmd, ctx, args[0], func(c context.Context, mgr *workflow.Manager, id int64, opts []workflow.WriteOption) (pipeline.Process, error) {
				return mgr.UpdateProcessNotes(c, id, args[1], opts...)
			})
		},
	}
}

type processWrite func(context.Context, *workflow.Manager, int64, []workflow.WriteOption) (pipeline.Process, error)

func runProcessWrite(cmd *cobra.Command, ctx *commandContext, rawID string, write processWrite) error {
	id, err := parseID(rawID, "process")
	if err != nil {
		return err
	}
	return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
		c := cmd.Context()
		opts, err := ctx.writeOptions(c, st)
		if err != nil {
			return err
		}
		p, err := write(c, mgr, id, opts)
		if err != nil {
			return err
		}
		printProcessSummary(cmd, st, p)
		return nil
	})
}
