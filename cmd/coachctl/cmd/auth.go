package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/coachkit"
	"github.com/dmitrymomot/coachkit/pkg/session"
)

// passwordEnv lets scripts pass the password without exposing it in argv.
const passwordEnv = "COACHCTL_PASSWORD"

type sessionView struct {
	Identity  session.Identity `json:"user" yaml:"user"`
	ExpiresAt time.Time        `json:"expiresAt" yaml:"expires_at"`
	Persisted bool             `json:"persisted" yaml:"persisted"`
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" {
				return fmt.Errorf("password is required (--password or %s)", passwordEnv)
			}
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				if err := kit.Session.Login(ctx, email, password); err != nil {
					return err
				}
				cred, _ := kit.Session.Credential()
				return a.render(sessionView{
					Identity:  cred.Identity,
					ExpiresAt: cred.ExpiresAt,
					Persisted: kit.Persistent(),
				})
			})
		},
	}

	c.Flags().StringVar(&email, "email", "", "account email")
	c.Flags().StringVar(&password, "password", "", "account password")
	_ = c.MarkFlagRequired("email")
	return c
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the refresh secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				// Restoring first lets the server revoke the secret as well.
				_ = restore(ctx, kit)
				if err := kit.Session.Logout(ctx); err != nil {
					return err
				}
				return a.render(map[string]bool{"loggedOut": true})
			})
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var req session.RegisterRequest
	var role string

	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(passwordEnv)
			}
			req.Role = session.Role(role)
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				id, err := kit.Session.Register(ctx, req)
				if err != nil {
					return err
				}
				return a.render(map[string]string{"id": id})
			})
		},
	}

	c.Flags().StringVar(&req.Email, "email", "", "account email")
	c.Flags().StringVar(&req.Password, "password", "", "account password")
	c.Flags().StringVar(&req.Name, "name", "", "display name")
	c.Flags().StringVar(&role, "role", "", "requested role (member, coach, admin)")
	c.Flags().StringVar(&req.AdminSecret, "admin-secret", "", "secret required for the admin role")
	_ = c.MarkFlagRequired("email")
	return c
}

func (a *app) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withKit(cmd.Context(), func(ctx context.Context, kit *coachkit.Kit) error {
				if err := restore(ctx, kit); err != nil {
					return err
				}
				token, ok := kit.Session.Token(ctx)
				if !ok {
					return errNotSignedIn
				}
				_, err := fmt.Fprintln(a.stdout, token)
				return err
			})
		},
	}
}
