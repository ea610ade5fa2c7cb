package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"campussecurity/internal/model"
	"campussecurity/internal/session"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			slot := app.Slot()
			ok, err := slot.Login(cmd.Context(), email, password)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, "login failed", err)
			}
			if !ok {
				return f.Fail(ExitFailure, ErrCodeAuth, "invalid email or password", nil)
			}
			u := slot.Current()
			return f.Success(u, fmt.Sprintf("Signed in as %s <%s> (%s)", u.Name, u.Email, u.Role))
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			if err := app.Slot().Logout(cmd.Context()); err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, "logout failed", err)
			}
			return f.Success(map[string]bool{"signedOut": true}, "Signed out. Run campusctl login to sign in again.")
		}),
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			u, err := requireUser(cmd, f, app)
			if err != nil {
				return err
			}
			text := fmt.Sprintf("%s <%s>\nrole: %s\nid:   %s", u.Name, u.Email, u.Role, u.ID)
			if u.LastLogin != nil {
				text += "\nlast login: " + u.LastLogin.Local().Format("2006-01-02 15:04:05")
			}
			return f.Success(u, text)
		}),
	}
}

// NewSignupCommand creates the signup command.
func NewSignupCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password, name, role string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an operator account",
		Args:  cobra.NoArgs,
		RunE: rootOpts.runE(func(cmd *cobra.Command, args []string, f *OutputFormatter, app *App) error {
			ok, err := app.Sessions.Signup(cmd.Context(), email, password, name, model.Role(role))
			switch {
			case errors.Is(err, session.ErrInvalidSignup):
				return f.Fail(ExitCommandError, ErrCodeInvalid, "name, email and password are required and role must be admin or security", err)
			case err != nil:
				return f.Fail(ExitCommandError, ErrCodeGeneric, "signup failed", err)
			case !ok:
				return f.Fail(ExitFailure, ErrCodeInvalid, "an account with that email already exists", nil)
			}
			return f.Success(map[string]string{"email": email, "name": name},
				fmt.Sprintf("Account created for %s. Sign in with campusctl login.", email))
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleSecurity), "admin or security")
	return cmd
}

// requireUser restores the stored session, failing when nobody is signed in.
func requireUser(cmd *cobra.Command, f *OutputFormatter, app *App) (*model.User, error) {
	u, err := app.Slot().Restore(cmd.Context())
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "could not read session", err)
	}
	if u == nil {
		return nil, f.Fail(ExitFailure, ErrCodeAuth, "not signed in; run campusctl login", nil)
	}
	return u, nil
}
