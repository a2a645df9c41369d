// ABOUTME: Route command explains how a message would be routed without running it
// ABOUTME: Shows the chosen tier, the matched skill and action, and every skill's confidence
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/routing"
)

// NewRouteCmd creates the route command
func NewRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <message>",
		Short: "Explain the routing decision for a message",
		Long: `Explain how a message would be routed for the default tenant.

No model call is made and no skill runs. Useful for tuning skill
triggers and the rule threshold.`,
		Example: `  t3nets route "what's blocking the sprint"
  t3nets route "show my tickets --raw" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			explanation := a.Router.Explain(args[0], a.EnabledSkills(cmd.Context()))
			if wantJSON() {
				return writeJSON(cmd.OutOrStdout(), explanation)
			}
			printExplanation(cmd.OutOrStdout(), explanation)
			return nil
		},
	}
	return cmd
}

func printExplanation(w io.Writer, e routing.Explanation) {
	_, _ = fmt.Fprintf(w, "Message:   %s\n", e.Text)
	_, _ = fmt.Fprintf(w, "Tier:      %s (%s)\n", e.Tier, e.Route)
	_, _ = fmt.Fprintf(w, "Raw:       %t\n", e.Raw)
	_, _ = fmt.Fprintf(w, "Threshold: %.2f\n", e.Threshold)
	if e.Match != nil {
		_, _ = fmt.Fprintf(w, "Match:     %s/%s (%.2f)\n", e.Match.Skill, e.Match.Action, e.Match.Confidence)
		for k, v := range e.Match.Params {
			if k != "action" {
				_, _ = fmt.Fprintf(w, "  %s = %v\n", k, v)
			}
		}
	}
	if len(e.Candidates) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SKILL\tCONFIDENCE")
	for _, c := range e.Candidates {
		_, _ = fmt.Fprintf(tw, "%s\t%.2f\n", c.Skill, c.Confidence)
	}
	_ = tw.Flush()
}
