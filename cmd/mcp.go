package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/resources"
	"github.com/teemow/inboxpal/internal/server"
	"github.com/teemow/inboxpal/internal/tools/inbox_tools"
)

func newMCPCmd() *cobra.Command {
	o := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the inbox tools as an MCP server over stdio",
		Long: `Run inboxpal as a Model Context Protocol server on stdin/stdout.

The tools take the caller's Google tokens as arguments, the same way the
HTTP API does, so an AI assistant can count, list and rank the inbox,
summarize a message and classify commands. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.loadSecrets()
			return runMCP(o)
		},
	}

	addCommonFlags(cmd, o)
	return cmd
}

func runMCP(o *commonOptions) error {
	cfg := &o.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := o.newLogger()

	provider, stopInstrumentation, err := startInstrumentation(ctx, logger)
	if err != nil {
		return err
	}
	defer stopInstrumentation()

	svc, err := buildAssistant(cfg, provider.Metrics(), logger)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, svc)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetMetrics(provider.Metrics())
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newInboxMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting MCP server on stdio")
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		// ServeStdio returns once stdin closes or the process is signalled.
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newInboxMCPServer creates an MCP server with every inbox tool and
// assistant resource registered.
func newInboxMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("inboxpal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := inbox_tools.RegisterInboxTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register inbox tools: %w", err)
	}
	resources.RegisterAssistantResources(mcpSrv)
	return mcpSrv, nil
}
