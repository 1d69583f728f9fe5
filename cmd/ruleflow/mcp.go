package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/pkg/adapters/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	var transport, addr, baseURL string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the evaluator, router, preflight checker and simulator as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(rt.Engine, rt.Logger)

			switch transport {
			case "stdio":
				// Ensure logs don't corrupt JSON-RPC on Stdout
				log.SetOutput(os.Stderr)
				rt.Logger.Info("starting MCP server (stdio)")
				return srv.ServeStdio()
			case "sse":
				if baseURL == "" {
					baseURL = "http://localhost" + addr
				}
				ctx := cli.NewSignalContext(cmd.Context())
				defer ctx.Cancel()
				return srv.ServeSSE(ctx, addr, baseURL)
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().StringVar(&addr, "addr", ":8081", "Listen address (only for SSE)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL advertised to SSE clients")
	return cmd
}
