// ABOUTME: Skills command lists registered skills for the default tenant
// ABOUTME: Shows enablement, raw support, required integration and triggers
package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// skillRow is one line of the skills listing
type skillRow struct {
	Name                string   `json:"name"`
	Enabled             bool     `json:"enabled"`
	SupportsRaw         bool     `json:"supports_raw"`
	RequiresIntegration string   `json:"requires_integration,omitempty"`
	Triggers            []string `json:"triggers"`
	Description         string   `json:"description"`
}

// NewSkillsCmd creates the skills command
func NewSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List registered skills",
		Long: `List the built-in skills and any skill manifests found in the
skills directory, and whether the default tenant has them enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			enabled := a.EnabledSkills(cmd.Context())
			rows := []skillRow{}
			for _, def := range a.Registry.List() {
				triggers := def.Triggers
				if triggers == nil {
					triggers = []string{}
				}
				rows = append(rows, skillRow{
					Name:                def.Name,
					Enabled:             slices.Contains(enabled, def.Name),
					SupportsRaw:         def.SupportsRaw,
					RequiresIntegration: def.RequiresIntegration,
					Triggers:            triggers,
					Description:         strings.TrimSpace(def.Description),
				})
			}

			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SKILL\tENABLED\tRAW\tINTEGRATION\tTRIGGERS")
			for _, r := range rows {
				integration := r.RequiresIntegration
				if integration == "" {
					integration = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%t\t%t\t%s\t%s\n",
					r.Name, r.Enabled, r.SupportsRaw, integration, truncate(strings.Join(r.Triggers, ", "), 50))
			}
			return tw.Flush()
		},
	}
	return cmd
}
