// ABOUTME: Secrets commands manage integration credentials for the default tenant
// ABOUTME: Writes go to the first configured provider (keyring when enabled, else the environment)
package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/secrets"
)

// NewSecretsCmd creates the secrets command group
func NewSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage integration credentials",
		Long: `Manage the credentials skills use to reach integrations.

Known integrations: ` + strings.Join(secrets.Integrations(), ", ") + `.

Enable secrets.use_keyring in the config to store credentials in the
OS keyring; otherwise they are read from the environment and .env file.`,
	}

	cmd.AddCommand(newSecretsSetCmd())
	cmd.AddCommand(newSecretsDeleteCmd())
	cmd.AddCommand(newSecretsListCmd())
	return cmd
}

func newSecretsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <integration> key=value...",
		Short:   "Store credentials for an integration",
		Example: `  t3nets secrets set jira url=https://acme.atlassian.net email=bot@acme.io api_token=... board_id=7`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			integration := args[0]
			if !slices.Contains(secrets.Integrations(), integration) {
				return fmt.Errorf("unknown integration %q", integration)
			}
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Secrets.Put(cmd.Context(), a.Tenant.ID, integration, values); err != nil {
				return fmt.Errorf("failed to store secrets: %w", err)
			}
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %d value(s) for %s\n", len(values), integration)
			}
			return nil
		},
	}
}

func newSecretsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <integration>",
		Short: "Remove credentials for an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Secrets.Delete(cmd.Context(), a.Tenant.ID, args[0]); err != nil {
				return fmt.Errorf("failed to delete secrets: %w", err)
			}
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s credentials\n", args[0])
			}
			return nil
		},
	}
}

func newSecretsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List integrations with credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			connected, err := a.Secrets.ListIntegrations(cmd.Context(), a.Tenant.ID)
			if err != nil {
				return fmt.Errorf("failed to list integrations: %w", err)
			}
			if wantJSON() {
				if connected == nil {
					connected = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), connected)
			}
			for _, name := range secrets.Integrations() {
				mark := mutedStyle.Render("not configured")
				if slices.Contains(connected, name) {
					mark = "configured"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, mark)
			}
			return nil
		},
	}
}
