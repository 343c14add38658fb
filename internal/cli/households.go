package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) householdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "households",
		Aliases: []string{"household", "hh"},
		Short:   "List, create and select households",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		a.householdsListCmd(),
		a.householdsCreateCmd(),
		a.householdsSelectCmd(),
		a.householdsCurrentCmd(),
		a.householdsMembersCmd(),
		a.householdsInviteCmd(),
	)
	return cmd
}

func (a *app) householdsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the households you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hs, err := a.rt.API.ListHouseholds(cmd.Context())
			if err != nil {
				return describe("list households", err)
			}
			current, _ := a.rt.Households.Current()

			tw := newTable(cmd.OutOrStdout(), "", "ID", "NAME", "ROLE")
			for _, h := range hs {
				mark := ""
				if h.ID == current {
					mark = "*"
				}
				row(tw, mark, h.ID, h.Name, h.Role)
			}
			return tw.Flush()
		},
	}
}

func (a *app) householdsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a household you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.rt.API.CreateHousehold(cmd.Context(), args[0])
			if err != nil {
				return describe("create household", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", h.Name, h.ID)

			if sel, _ := cmd.Flags().GetBool("select"); sel {
				if err := a.rt.Households.Select(cmd.Context(), h.ID); err != nil {
					return describe("select household", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Household %s selected\n", h.ID)
			}
			return nil
		},
	}
	cmd.Flags().Bool("select", false, "select the new household")
	return cmd
}

func (a *app) householdsSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Scope subsequent commands to a household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.rt.Households.Select(cmd.Context(), id); err != nil {
				return describe("select household", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Household %s selected\n", id)
			return nil
		},
	}
}

func (a *app) householdsCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the selected household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := a.household()
			if err != nil {
				return err
			}
			h, err := a.rt.API.GetHousehold(cmd.Context(), id)
			if err != nil {
				return describe("get household", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", h.ID, h.Name, h.Role)
			return nil
		},
	}
}

// targetHousehold is the id argument when given, else the selection.
func (a *app) targetHousehold(args []string) (uuid.UUID, error) {
	if len(args) > 0 {
		return parseID(args[0])
	}
	return a.household()
}

func (a *app) householdsMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members [household-id]",
		Short: "List the members of a household",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.targetHousehold(args)
			if err != nil {
				return err
			}
			ms, err := a.rt.API.ListMembers(cmd.Context(), id)
			if err != nil {
				return describe("list members", err)
			}
			tw := newTable(cmd.OutOrStdout(), "USER", "EMAIL", "ROLE", "JOINED")
			for _, m := range ms {
				row(tw, m.UserID, m.Email, m.Role, date(&m.JoinedAt))
			}
			return tw.Flush()
		},
	}
}

func (a *app) householdsInviteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite [household-id]",
		Short: "Add an existing account to a household",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.targetHousehold(args)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")

			m, err := a.rt.API.InviteMember(cmd.Context(), id, email, role)
			if err != nil {
				return describe("invite member", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s\n", email, m.Role)
			return nil
		},
	}
	cmd.Flags().String("email", "", "e-mail of the account to add")
	cmd.Flags().String("role", "member", "role: admin or member")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
