// ABOUTME: Serve command runs the HTTP and WebSocket chat API
// ABOUTME: Shuts down gracefully on SIGINT or SIGTERM
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/server"
)

var (
	serveHost string
	servePort int
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long: `Start the dashboard chat API.

Endpoints:
  POST /api/chat    {"text": "...", "conversation_id": "..."}
  POST /api/clear   {"conversation_id": "..."}
  GET  /api/health  tenant, skills, integrations and routing stats
  GET  /ws          WebSocket; each frame is a chat request`,
		Example: `  t3nets serve
  t3nets serve --port 9090
  T3NETS_SERVER_HOST=0.0.0.0 t3nets serve`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.StartSync(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.Router, a.Store, a.ServerOptions())
	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "t3nets listening on http://%s (tenant %s, skills: %v)\n",
			cfg.Server.Addr(), a.Tenant.ID, a.Registry.Names())
	}
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr(), cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
