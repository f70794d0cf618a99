package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/contractor-desk/contractor-desk/internal/auth"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := auth.NewService(rt.conn).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "Welcome back, %s!\n", name(result.User.Name, result.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCommand(rt *runtime) *cobra.Command {
	var fullName, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := auth.NewService(rt.conn).Register(cmd.Context(), fullName, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "Welcome, %s!\n", name(result.User.Name, result.User.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.NewService(rt.conn).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := auth.NewService(rt.conn).Current(cmd.Context())
			if !ok {
				return errNotLoggedIn
			}
			enc := yaml.NewEncoder(rt.out)
			defer enc.Close()
			return enc.Encode(user)
		},
	}
}

func name(display, email string) string {
	if display != "" {
		return display
	}
	return email
}
