// ABOUTME: History commands list, export and clear stored conversations
// ABOUTME: Export supports YAML and Markdown
package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/models"
	"github.com/WildEllie/t3nets/internal/storage"
)

var (
	exportFormat string
	exportOutput string
)

// NewHistoryCmd creates the history command group
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored conversations",
		Long: `Inspect the default tenant's stored conversations.

Raw (--raw) replies are never stored, so they do not appear here.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryExportCmd())
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			infos, err := a.Store.ListConversations(cmd.Context(), a.Tenant.ID)
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}
			if infos == nil {
				infos = []models.ConversationInfo{}
			}
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			if len(infos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "CONVERSATION\tTURNS\tLAST ACTIVE")
			for _, info := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", truncate(info.ConversationID, 40), info.TurnCount, formatTime(info.LastActivity))
			}
			return tw.Flush()
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <conversation>",
		Short: "Export a conversation",
		Example: `  t3nets history export dashboard-default
  t3nets history export standup --as markdown -o standup.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFormat != "yaml" && exportFormat != "markdown" {
				return fmt.Errorf("unknown export format %q (want yaml or markdown)", exportFormat)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			data, err := storage.Export(cmd.Context(), a.Store, a.Tenant.ID, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if exportOutput != "" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", exportOutput, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if exportFormat == "markdown" {
				return storage.WriteMarkdown(w, data)
			}
			return storage.WriteYAML(w, data)
		},
	}

	cmd.Flags().StringVar(&exportFormat, "as", "yaml", "Export format: yaml or markdown")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <conversation>",
		Short: "Delete a conversation's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Store.ClearConversation(cmd.Context(), a.Tenant.ID, args[0]); err != nil {
				return fmt.Errorf("failed to clear conversation: %w", err)
			}
			if !quiet {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s\n", args[0])
			}
			return nil
		},
	}
}
