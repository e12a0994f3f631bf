package main

import (
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

func newConsultantCommand(ctx *commandContext) *cobra.Command {
	consultantCmd := &cobra.Command{
		Use:     "consultant",
		Aliases: []string{"consultants"},
		Short:   "Manage consultants",
	}
	consultantCmd.AddCommand(newConsultantAddCommand(ctx))
	consultantCmd.AddCommand(newConsultantListCommand(ctx))
	return consultantCmd
}

func newConsultantAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name       string
		email      string
		privilege  string
		sourceID   int64
		subsidiary string
		joined     string
	)
	cmd := &cobra.Command{
		Use:   "add <trigram>",
		Short: "Register a consultant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, ok := pipeline.ParsePrivilege(privilege)
			if !ok {
				return services.Wrap(services.ErrValidation, "cli", "consultant add", fmt.Sprintf("unknown privilege %q", privilege), nil)
			}
			consultant := pipeline.Consultant{
				Trigram:    args[0],
				FullName:   name,
				Email:      email,
				Privilege:  priv,
				Active:     true,
				DateJoined: time.Now(),
			}
			if strings.TrimSpace(joined) != "" {
				t, err := parseWhen(joined)
				if err != nil {
					return err
				}
				consultant.DateJoined = t
			}
			if sourceID > 0 {
				consultant.LimitedToSource = &sourceID
			}
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				err := st.Update(c, func(tx *store.Tx) error {
					if strings.TrimSpace(subsidiary) != "" {
						sub, err := tx.SubsidiaryByCode(c, subsidiary)
						if err != nil {
							return err
						}
						consultant.SubsidiaryID = &sub.ID
					}
					return tx.InsertConsultant(c, &consultant)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Consultant %d: %s\n", consultant.ID, consultant.Trigram)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&privilege, "privilege", "all", "all, external_extra, external_full, or external_readonly")
	cmd.Flags().Int64Var(&sourceID, "source", 0, "Limit visibility to this source id")
	cmd.Flags().StringVar(&subsidiary, "subsidiary", "", "Home subsidiary code")
	cmd.Flags().StringVar(&joined, "joined", "", "Date joined (defaults to today)")
	return cmd
}

func newConsultantListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List consultants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				consultants, err := st.Read().ListConsultants(cmd.Context())
				if err != nil {
					return err
				}
				if len(consultants) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No consultants")
					return nil
				}
				rows := make([][]string, 0, len(consultants))
				for _, c := range consultants {
					rows = append(rows, []string{
						strconv.FormatInt(c.ID, 10), c.Trigram, dash(c.FullName), dash(c.Email),
						c.Privilege.String(), yesNo(c.Active),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Trigram", "Name", "Email", "Privilege", "Active"},
					rows,
					[]columnAlignment{alignRight},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newSubsidiaryCommand(ctx *commandContext) *cobra.Command {
	subsidiaryCmd := &cobra.Command{
		Use:     "subsidiary",
		Aliases: []string{"subsidiaries"},
		Short:   "Manage subsidiaries",
	}
	subsidiaryCmd.AddCommand(newSubsidiaryAddCommand(ctx))
	subsidiaryCmd.AddCommand(newSubsidiaryListCommand(ctx))
	return subsidiaryCmd
}

func newSubsidiaryAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		responsible string
		informed    []string
	)
	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Register a subsidiary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				c := cmd.Context()
				sub := pipeline.Subsidiary{Code: args[0], Name: name}
				if strings.TrimSpace(sub.Name) == "" {
					sub.Name = args[0]
				}
				if strings.TrimSpace(responsible) != "" {
					id, err := resolveTrigram(c, st, responsible)
					if err != nil {
						return err
					}
					sub.ResponsibleID = &id
				}
				ids, err := resolveTrigrams(c, st, informed)
				if err != nil {
					return err
				}
				sub.Informed = ids
				if err := st.Update(c, func(tx *store.Tx) error {
					return tx.InsertSubsidiary(c, &sub)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Subsidiary %d: %s\n", sub.ID, sub.Code)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&responsible, "responsible", "", "Responsible consultant trigram")
	cmd.Flags().StringSliceVar(&informed, "informed", nil, "Consultant trigrams copied on every event (repeatable)")
	return cmd
}

func newSubsidiaryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subsidiaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				lk, err := loadLookups(cmd.Context(), st)
				if err != nil {
					return err
				}
				subs, err := st.Read().ListSubsidiaries(cmd.Context())
				if err != nil {
					return err
				}
				if len(subs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No subsidiaries")
					return nil
				}
				rows := make([][]string, 0, len(subs))
				for _, s := range subs {
					var owner []int64
					if s.ResponsibleID != nil {
						owner = []int64{*s.ResponsibleID}
					}
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10), s.Code, s.Name,
						trigramLabel(owner, lk.consultants),
						trigramLabel(s.Informed, lk.consultants),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Code", "Name", "Responsible", "Informed"},
					rows,
					[]columnAlignment{alignRight},
				))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newSourceCommand(ctx *commandContext) *cobra.Command {
	var category string
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Manage candidate sources",
	}
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				src := pipeline.Source{Name: args[0], Category: category}
				if err := st.Update(cmd.Context(), func(tx *store.Tx) error {
					return tx.InsertSource(cmd.Context(), &src)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %d: %s\n", src.ID, src.Name)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&category, "category", "", "Source category (job board, referral, agency)")
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				sources, err := st.Read().ListSources(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range sources {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", s.ID, s.Name, dash(s.Category))
				}
				return nil
			})
		},
	}
	sourceCmd.AddCommand(addCmd, listCmd)
	return sourceCmd
}

func newContractTypeCommand(ctx *commandContext) *cobra.Command {
	var hasDuration bool
	ctCmd := &cobra.Command{
		Use:   "contract-type",
		Short: "Manage contract types",
	}
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a contract type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager, st *store.Store) error {
				ct := pipeline.ContractType{Name: args[0], HasDuration: hasDuration}
				if err := st.Update(cmd.Context(), func(tx *store.Tx) error {
					return tx.InsertContractType(cmd.Context(), &ct)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Contract type %d: %s\n", ct.ID, ct.Name)
				return nil
			})
		},
	}
	addCmd.Flags().BoolVar(&hasDuration, "has-duration", false, "Contracts of this type carry a duration")
	ctCmd.AddCommand(addCmd)
	return ctCmd
}
