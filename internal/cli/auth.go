package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"freshreceipt_backend/internal/client"
	"freshreceipt_backend/internal/client/session"
)

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "account e-mail")
	cmd.Flags().String("password", "", "account password (env "+envPassword+")")
	_ = cmd.MarkFlagRequired("email")
}

func (a *app) signupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and its first household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("household-name")

			h, err := a.rt.SignUp(cmd.Context(), email, pw, name)
			if err != nil {
				return describe("sign up", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed up as %s\n", email)
			if h != nil {
				fmt.Fprintf(out, "Household %q (%s) selected\n", h.Name, h.ID)
			}
			return nil
		},
	}
	credentialFlags(cmd)
	cmd.Flags().String("household-name", "", "name of the first household (default \"<email>'s Household\")")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			pw, err := password(cmd)
			if err != nil {
				return err
			}

			u, err := a.rt.SignIn(cmd.Context(), email, pw)
			if err != nil {
				return describe("login", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s\n", u.Email)
			if id, ok := a.rt.Households.Current(); ok {
				fmt.Fprintf(out, "Household %s selected\n", id)
			}
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget local credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.rt.Teardown(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if a.rt.Session.Snapshot().State != session.StateAuthenticated {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			me, err := a.rt.API.Me(cmd.Context())
			if err != nil {
				return describe("whoami", err)
			}
			fmt.Fprintf(out, "%s (%s)\n", me.Email, me.ID)
			if id, ok := a.rt.Households.Current(); ok {
				fmt.Fprintf(out, "household: %s\n", id)
			}
			return nil
		},
	}
}

// describe prefers the server's error text over the raw status line.
func describe(op string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s: %s", op, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
