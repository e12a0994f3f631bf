package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

func newCandidateCommand(ctx *commandContext) *cobra.Command {
	candidateCmd := &cobra.Command{
		Use:     "candidate",
		Aliases: []string{"candidates"},
		Short:   "Register candidates and their documents",
	}

	candidateCmd.AddCommand(newCandidateAddCommand(ctx))
	candidateCmd.AddCommand(newCandidateShowCommand(ctx))
	candidateCmd.AddCommand(newCandidateDocumentCommand(ctx))

	return candidateCmd
}

func newCandidateAddCommand(ctx *commandContext) *cobra.Command {
	var c pipeline.Candidate

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				opts, err := ctx.writeOptions(cmd.Context(), st)
				if err != nil {
					return err
				}
				created, err := mgr.CreateCandidate(cmd.Context(), c, opts...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Candidate %d: %s\n", created.ID, created.Name)
				dups, err := mgr.FindDuplicates(cmd.Context(), created.Name, created.Email)
				if err != nil {
					return err
				}
				if len(dups) > 0 {
					fmt.Fprintf(out, "Warning: matches %d anonymized candidate(s): %s\n", len(dups), candidateIDs(dups))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&c.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&c.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&c.LinkedinURL, "linkedin", "", "LinkedIn profile URL")
	return cmd
}

func newCandidateShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <candidate-id>",
		Short: "Show a candidate with processes and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "candidate")
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				tx := st.Read()
				candidate, err := tx.Candidate(c, id)
				if err != nil {
					return err
				}
				processes, err := listVisibleProcesses(c, ctx, st, store.ProcessFilter{CandidateID: id})
				if err != nil {
					return err
				}
				docs, err := tx.Documents(c, id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"id":         candidate.ID,
						"name":       candidate.Name,
						"email":      candidate.Email,
						"anonymized": candidate.Anonymized,
						"processes":  processIDs(processes),
						"documents":  len(docs),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Candidate #%d\n", candidate.ID)
				if candidate.Anonymized {
					fmt.Fprintln(out, "  Anonymized: yes")
				} else {
					fmt.Fprintf(out, "  Name:       %s\n", dash(candidate.Name))
					fmt.Fprintf(out, "  Email:      %s\n", dash(candidate.Email))
					fmt.Fprintf(out, "  Phone:      %s\n", dash(candidate.Phone))
					fmt.Fprintf(out, "  LinkedIn:   %s\n", dash(candidate.LinkedinURL))
				}
				for _, p := range processes {
					fmt.Fprintf(out, "  Process %d: %s\n", p.ID, p.State)
				}
				for _, d := range docs {
					fmt.Fprintf(out, "  Document %d [%s]: %s\n", d.ID, d.Kind, d.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newCandidateDocumentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "document <candidate-id> <CV|CL|OT> <file>",
		Short: "Copy a document into the documents directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "candidate")
			if err != nil {
				return err
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				opts, err := ctx.writeOptions(cmd.Context(), st)
				if err != nil {
					return err
				}
				doc, err := mgr.AddDocument(cmd.Context(), id, args[1], args[2], opts...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Document %d stored at %s\n", doc.ID, doc.Path)
				return nil
			})
		},
	}
}

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	var (
		name    string
		email   string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find anonymized candidates matching a name or email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				dups, err := mgr.FindDuplicates(cmd.Context(), name, email)
				if err != nil {
					return err
				}
				if jsonOut {
					ids := make([]int64, 0, len(dups))
					for _, d := range dups {
						ids = append(ids, d.ID)
					}
					return writeJSON(cmd, map[string]any{"matches": ids})
				}
				if len(dups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No anonymized candidate matches")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matches %d anonymized candidate(s): %s\n", len(dups), candidateIDs(dups))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Candidate name")
	cmd.Flags().StringVar(&email, "email", "", "Candidate email")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func candidateIDs(candidates []pipeline.Candidate) string {
	out := ""
	for idx, c := range candidates {
		if idx > 0 {
			out += ", "
		}
		out += "#" + strconv.FormatInt(c.ID, 10)
	}
	return out
}

func processIDs(processes []pipeline.Process) []int64 {
	ids := make([]int64, 0, len(processes))
	for _, p := range processes {
		ids = append(ids, p.ID)
	}
	return ids
}
