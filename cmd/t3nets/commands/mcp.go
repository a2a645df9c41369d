// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents like Claude chat through the router via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs t3nets as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to send messages through the router, explain
routing decisions and list skills via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  t3nets mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "t3nets": {
  #       "command": "t3nets",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol
	logging.SetOutput(os.Stderr)
	logger := logging.Get("mcp")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := mcpserver.NewMCPServer(mcp.ServerName, versionInfo.Version)
	mcp.RegisterTools(server, mcp.Deps{
		TenantID: a.Tenant.ID,
		Router:   a.Router,
		Tenants:  a.Store,
		History:  a.Store,
		Catalog:  a.Registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("tenant", a.Tenant.ID).Msg("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
