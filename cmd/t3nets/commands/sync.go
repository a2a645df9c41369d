// ABOUTME: Sync commands for Charm cloud synchronization
// ABOUTME: Provides status and an immediate sync when the charm backend is configured
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/charm"
	"github.com/WildEllie/t3nets/internal/config"
	"github.com/WildEllie/t3nets/internal/storage"
)

var errNotCharm = errors.New("storage backend is not charm; set storage.backend: charm to sync")

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

With storage.backend set to charm, tenants and conversations sync across
machines linked to the same Charm account via SSH keys. Set
storage.charm.sync_schedule (cron syntax, e.g. "@every 5m") to sync in
the background while serving.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	return cmd
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration and connection info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Backend:  %s\n", cfg.Storage.Backend)
			if cfg.Storage.Backend != config.BackendCharm {
				_, _ = fmt.Fprintf(out, "Database: %s\n", cfg.Storage.SQLitePath())
				return nil
			}

			_, _ = fmt.Fprintf(out, "Host:     %s\n", cfg.Storage.Charm.Host)
			_, _ = fmt.Fprintf(out, "KV:       %s\n", cfg.Storage.Charm.DBName)
			schedule := cfg.Storage.Charm.SyncSchedule
			if schedule == "" {
				schedule = "off"
			}
			_, _ = fmt.Fprintf(out, "Schedule: %s\n", schedule)

			client, err := charm.NewClient(&charm.Config{
				Host:   cfg.Storage.Charm.Host,
				DBName: cfg.Storage.Charm.DBName,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer func() { _ = client.Close() }()

			id, err := client.ID()
			if err != nil {
				_, _ = fmt.Fprintln(out, "Status:   Not connected")
				return nil
			}
			_, _ = fmt.Fprintln(out, "Status:   Connected")
			_, _ = fmt.Fprintf(out, "User ID:  %s\n", id)
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.Backend != config.BackendCharm {
				return errNotCharm
			}

			backend, err := storage.Open(cfg.Storage)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			syncer, ok := backend.(storage.Syncer)
			if !ok {
				return errNotCharm
			}
			if !quiet {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			}
			if err := syncer.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if !quiet {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			}
			return nil
		},
	}
}
