package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prn-tf/product-manager/internal/domain"
	"github.com/prn-tf/product-manager/internal/service"
)

// sessionView is the JSON shape of a login result. The token stays private.
type sessionView struct {
	User      *domain.User `json:"user"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

func (c *cli) printSession(verb string, result *service.AuthResult) error {
	view := sessionView{User: result.User}
	if !result.ExpiresAt.IsZero() {
		view.ExpiresAt = &result.ExpiresAt
	}
	if c.jsonOut {
		return printJSON(c.out, view)
	}

	fmt.Fprintf(c.out, "%s as %s (%s)\n", verb, result.User.Username, result.User.Email)
	if view.ExpiresAt != nil {
		fmt.Fprintf(c.out, "Session expires %s\n", view.ExpiresAt.Local().Format(timeLayout))
	}
	return nil
}

func (c *cli) signupCmd() *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Long: `Create a new account. The password is prompted for unless --password is given.

Passwords need at least 8 characters with upper and lower case letters, a number
and a special character.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = c.valueOrPrompt(email, "Email", false); err != nil {
				return err
			}
			if password, err = c.valueOrPrompt(password, "Password", true); err != nil {
				return err
			}

			result, err := c.app.Auth.Signup(cmd.Context(), service.SignupInput{
				Email:    email,
				Password: password,
				Username: username,
			})
			if err != nil {
				return err
			}
			return c.printSession("Signed up", result)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&username, "username", "u", "", "display name (default: the part of the email before @)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var (
		email, password string
		remember        bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = c.valueOrPrompt(email, "Email", false); err != nil {
				return err
			}
			if password, err = c.valueOrPrompt(password, "Password", true); err != nil {
				return err
			}

			result, err := c.app.Auth.Login(cmd.Context(), service.LoginInput{
				Email:      email,
				Password:   password,
				RememberMe: remember,
			})
			if err != nil {
				return err
			}
			return c.printSession("Logged in", result)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVarP(&remember, "remember", "r", false, "keep the session for 30 days instead of 24 hours")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]bool{"loggedOut": true})
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.Auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, user)
			}
			printUser(c.out, user)
			return nil
		},
	}
}

func (c *cli) passwdCmd() *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.Auth.IsAuthenticated(cmd.Context()) {
				return service.ErrNotAuthenticated
			}

			var err error
			if current, err = c.valueOrPrompt(current, "Current password", true); err != nil {
				return err
			}
			if next, err = c.valueOrPrompt(next, "New password", true); err != nil {
				return err
			}

			if err := c.app.Auth.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]bool{"changed": true})
			}
			fmt.Fprintln(c.out, "Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "current password (prompted when omitted)")
	cmd.Flags().StringVar(&next, "new", "", "new password (prompted when omitted)")
	return cmd
}
