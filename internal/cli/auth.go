package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/views"
)

const passwordEnv = "STOREFRONT_PASSWORD"

type credentialFlags struct {
	email    string
	password string
	fullName string
}

func (c *credentialFlags) bind(cmd *cobra.Command, withName bool) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password (or $"+passwordEnv+")")
	if withName {
		cmd.Flags().StringVar(&c.fullName, "name", "", "full name")
	}
	_ = cmd.MarkFlagRequired("email")
}

func (c *credentialFlags) resolvedPassword() string {
	if c.password != "" {
		return c.password
	}
	return os.Getenv(passwordEnv)
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				return submitAuth(ctx, a, out, views.ModeLogin, creds)
			})
		},
	}
	creds.bind(cmd, false)
	return cmd
}

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	creds := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				return submitAuth(ctx, a, out, views.ModeRegister, creds)
			})
		},
	}
	creds.bind(cmd, true)
	return cmd
}

func submitAuth(ctx context.Context, a *app.Application, out *OutputFormatter, mode views.AuthMode, creds *credentialFlags) error {
	form := views.NewAuthForm(a, mode)
	defer form.Unmount()
	if err := form.Mount(ctx); err != nil {
		return failed(err)
	}
	form.Email = creds.email
	form.Password = creds.resolvedPassword()
	form.FullName = creds.fullName

	if res := form.Submit(ctx); !res.Success {
		if !out.JSON() {
			_ = form.Render(out.Writer)
		}
		return fail(res)
	}
	return out.Success(a.Snapshot().User, form.Render)
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				a.Logout(ctx)
				return out.Success(map[string]bool{"signed_in": false}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Signed out")
					return err
				})
			})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				snap := a.Snapshot()
				data := map[string]any{"session_id": snap.SessionID, "user": snap.User}
				return out.Success(data, func(w io.Writer) error {
					if snap.User == nil {
						_, err := fmt.Fprintf(w, "Not signed in (session %s)\n", snap.SessionID)
						return err
					}
					_, err := fmt.Fprintf(w, "%s <%s> id=%s session=%s\n",
						snap.User.DisplayName(), snap.User.Email, snap.User.ID, snap.SessionID)
					return err
				})
			})
		},
	}
}
