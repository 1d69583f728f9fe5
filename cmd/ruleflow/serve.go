package main

import (
	"net"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/internal/presentation/tui"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the evaluator, router, preflight checker and flow storage as a JSON API.
The OpenAPI document is available on /openapi.yaml and Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			if !quiet {
				tui.PrintBanner(cmd.ErrOrStderr(), ruleflow.Version)
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return cli.Serve(ctx, rt, ln, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the banner")
	return cmd
}
