package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/policy"
	"github.com/inkwell-blog/inkwell/internal/services/token"
)

// NewCredentialCmd creates the credential command group. These are
// development aids; they need the service's JWT_SECRET and therefore only
// work where the operator already holds the signing key.
func NewCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Issue and inspect session credentials locally",
	}
	cmd.AddCommand(newCredentialIssueCmd())
	cmd.AddCommand(newCredentialInspectCmd())
	return cmd
}

func signingCodec() (*token.Codec, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return token.NewCodec(secret)
}

func newCredentialIssueCmd() *cobra.Command {
	var login string
	var repoOwner string
	var collaborator bool

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a credential for a synthetic login",
		Long:  "Derives the role the given login would receive and signs a credential for it, for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" {
				return fmt.Errorf("--login is required")
			}
			if repoOwner == "" {
				repoOwner = os.Getenv("GITHUB_REPO_OWNER")
			}
			if repoOwner == "" {
				return fmt.Errorf("--repo-owner or GITHUB_REPO_OWNER is required")
			}

			codec, err := signingCodec()
			if err != nil {
				return err
			}

			grant := policy.RoleFor(login, repoOwner, collaborator)
			credential, err := codec.Issue(&models.Claims{
				SubjectID:   login,
				Login:       login,
				Name:        login,
				Email:       login + "@github.local",
				Role:        grant.Role,
				Permissions: grant.Permissions,
				IsRepoOwner: grant.IsRepoOwner,
			})
			if err != nil {
				return fmt.Errorf("failed to issue credential: %w", err)
			}

			fmt.Printf("Role: %s\n", grant.Role)
			fmt.Println(credential)
			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "GitHub login to issue for (required)")
	cmd.Flags().StringVar(&repoOwner, "repo-owner", "", "Repository owner login (defaults to GITHUB_REPO_OWNER)")
	cmd.Flags().BoolVar(&collaborator, "collaborator", false, "Treat the login as a repository collaborator")

	return cmd
}

func newCredentialInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <credential>",
		Short: "Verify a credential and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := signingCodec()
			if err != nil {
				return err
			}

			claims, err := codec.Verify(args[0])
			if err != nil {
				return fmt.Errorf("credential is not valid: %w", err)
			}

			fmt.Printf("Subject:    %s\n", claims.SubjectID)
			fmt.Printf("Login:      %s\n", claims.Login)
			fmt.Printf("Role:       %s\n", claims.Role)
			fmt.Printf("Repo owner: %t\n", claims.IsRepoOwner)
			fmt.Println("Permissions:")
			for _, p := range claims.Permissions {
				fmt.Printf("  - %s\n", p)
			}
			return nil
		},
	}

	return cmd
}
