package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/theme"
)

func newRequestAdminCmd(opts *rootOptions) *cobra.Command {
	var req model.AdminRequest
	cmd := &cobra.Command{
		Use:   "request-admin",
		Short: "Ask to become a contributor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.app.api.RequestAdmin(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s request sent, you will hear back by email\n", theme.Success.Render("✓"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "your name")
	cmd.Flags().StringVar(&req.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&req.Portfolio, "portfolio", "", "link to your work")
	return cmd
}

func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user behind the configured token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			ctx := cmd.Context()
			token, err := a.tokens.Token(ctx)
			if err != nil {
				return err
			}
			id, err := a.auth.WhoAmI(ctx, token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if id.UserID == "" {
				fmt.Fprintln(out, theme.Muted.Render("token set but not verified (enable auth.enforce_gate to check it)"))
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", theme.Prompt.Render("user:"), id.UserID)
			if id.Username != "" {
				fmt.Fprintf(out, "%s %s\n", theme.Prompt.Render("username:"), id.Username)
			}
			if id.Email != "" {
				fmt.Fprintf(out, "%s %s\n", theme.Prompt.Render("email:"), id.Email)
			}
			if admin := a.cfg.Auth.AdminUserID; admin != "" {
				if string(id.UserID) == admin {
					fmt.Fprintln(out, theme.Success.Render("admin"))
				} else {
					fmt.Fprintln(out, theme.Failure.Render("not the admin"))
				}
			}
			return nil
		},
	}
}
