package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/internal/presentation/tui"
)

// errNotReady makes --strict runs exit non-zero.
var errNotReady = errors.New("flow is not ready")

func newPreflightCmd(a *app) *cobra.Command {
	var asJSON, strict bool
	cmd := &cobra.Command{
		Use:   "preflight <flow-file|flow-id>",
		Short: "Check a flow for structural problems",
		Long: `Runs every preflight check against a flow document or a stored flow and
prints the issues and the per-check trace. Pass "-" to read the flow from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			flow, err := cli.LoadFlowArg(ctx, rt.Engine, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			report := rt.Engine.Preflight(ctx, flow)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				title := flow.ID
				if title == "" {
					title = args[0]
				}
				if err := tui.Print(out, tui.ReportMarkdown(title, report)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), tui.ReadyLine(cmd.ErrOrStderr(), report))
			}

			if strict && !report.Ready {
				return errNotReady
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when the flow is not ready")
	return cmd
}
