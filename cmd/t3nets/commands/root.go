// ABOUTME: Root command, global flags and shared App construction for the t3nets CLI
// ABOUTME: Every subcommand loads config and logging through the persistent pre-run
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/app"
	"github.com/WildEllie/t3nets/internal/config"
	"github.com/WildEllie/t3nets/internal/logging"
)

// Output formats for --format
const (
	formatAuto = "auto"
	formatJSON = "json"
	formatText = "text"
)

var (
	configFile string
	verbose    bool
	quiet      bool
	format     string

	// cfg is loaded by the root pre-run
	cfg *config.Config
)

const banner = `
████████╗██████╗ ███╗   ██╗███████╗████████╗███████╗
╚══██╔══╝╚════██╗████╗  ██║██╔════╝╚══██╔══╝██╔════╝
   ██║    █████╔╝██╔██╗ ██║█████╗     ██║   ███████╗
   ██║    ╚═══██╗██║╚██╗██║██╔══╝     ██║   ╚════██║
   ██║   ██████╔╝██║ ╚████║███████╗   ██║   ███████║
   ╚═╝   ╚═════╝ ╚═╝  ╚═══╝╚══════╝   ╚═╝   ╚══════╝`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "t3nets",
		Short: "Hybrid routing assistant for team tools",
		Long: banner + `

t3nets answers chat messages through three tiers: small talk goes
straight to the model, messages that match a skill's triggers run the
skill directly, and everything else lets the model pick a tool.

Append --raw to a message to get a skill's output without narration.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./t3nets.yaml or $XDG_CONFIG_HOME/t3nets/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&format, "format", formatAuto, "Output format: auto, json or text")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewRouteCmd())
	cmd.AddCommand(NewSkillsCmd())
	cmd.AddCommand(NewSecretsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	switch format {
	case formatAuto, formatJSON, formatText:
	default:
		return fmt.Errorf("unknown format %q (want auto, json or text)", format)
	}

	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	verbosity := 0
	switch {
	case verbose:
		verbosity = 2
	case quiet:
		verbosity = -1
	}
	logging.Setup(verbosity, cfg.Logging.File)
	return nil
}

// openApp builds the runtime from the loaded config
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start t3nets: %w", err)
	}
	return a, nil
}

// wantJSON reports whether output should be JSON
func wantJSON() bool {
	return format == formatJSON
}
