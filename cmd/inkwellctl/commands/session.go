package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-blog/inkwell/internal/session"
)

const commandTimeout = 15 * time.Second

func newStore(serverURL, credential string) (*session.Store, error) {
	var opts []session.Option
	if credential != "" {
		opts = append(opts, session.WithCredential(credential))
	}
	return session.NewStore(serverURL, opts...)
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverURL string
	var credential string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind a session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(serverURL, credential)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			identity, err := store.Current(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch identity: %w", err)
			}
			if identity == nil {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("Login:      %s\n", identity.Login)
			fmt.Printf("Name:       %s\n", identity.Name)
			fmt.Printf("Email:      %s\n", identity.Email)
			fmt.Printf("Role:       %s\n", identity.Role)
			fmt.Printf("Repo owner: %t\n", identity.IsRepoOwner)
			fmt.Println("Permissions:")
			for _, p := range identity.Permissions {
				fmt.Printf("  - %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the blog service")
	cmd.Flags().StringVar(&credential, "credential", "", "Session credential to present (defaults to none)")

	return cmd
}

// NewLoginURLCmd creates the login-url command
func NewLoginURLCmd() *cobra.Command {
	var serverURL string
	var redirect string

	cmd := &cobra.Command{
		Use:   "login-url",
		Short: "Print the URL that starts a GitHub login",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(serverURL, "")
			if err != nil {
				return err
			}
			fmt.Println(store.LoginURL(redirect))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the blog service")
	cmd.Flags().StringVar(&redirect, "redirect", "", "Path to land on after login")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverURL string
	var credential string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session behind a credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore(serverURL, credential)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			if err := store.Logout(ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Println("Logged out")
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the blog service")
	cmd.Flags().StringVar(&credential, "credential", "", "Session credential to present")

	return cmd
}
