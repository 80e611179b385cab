package main

import (
	"fmt"

	"robohub/internal/orders"
	"robohub/internal/session"
	"robohub/internal/view"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			user, err := deps.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			notify(cmd, view.Success("Welcome back to RoboHub!"))
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var form session.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			if err := form.Validate(); err != nil {
				return err
			}
			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			user, err := deps.Session.Register(cmd.Context(), form.Email, form.Password, form.FullName)
			if err != nil {
				return err
			}
			notify(cmd, view.Success("Welcome to RoboHub! Account created successfully."))
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FullName, "full-name", "", "your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "repeat the password (defaults to --password)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := deps.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			notify(cmd, view.Info("Signed out"))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, user, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			account := orders.NewAccount(*user)
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Name:\t%s\n", account.FullName)
			fmt.Fprintf(tw, "Email:\t%s\n", account.Email)
			fmt.Fprintf(tw, "Account type:\t%s\n", account.AccountType)
			fmt.Fprintf(tw, "Member since:\t%s\n", account.MemberSince)
			return tw.Flush()
		},
	}
}
