package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/internal/presentation/graph"
	"github.com/aretw0/ruleflow/internal/presentation/tui"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		fact              string
		asJSON, showGraph bool
	)
	cmd := &cobra.Command{
		Use:   "simulate <flow-file|flow-id>",
		Short: "Preflight a flow and route a fact through it",
		Long: `Simulates one event: the flow is preflighted, then the fact is routed through
its branches. Without --fact the flow's sample_fact is used. Preflight
failures are reported but do not stop the simulation.`,
		Example: `  ruleflow simulate flows/cart.yaml --fact '{"segment": "VIP"}'
  ruleflow simulate cart-recovery --fact @event.json --graph`,
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
			f, err := cli.ParseFactArg(fact, cmd.InOrStdin())
			if err != nil {
				return err
			}

			sim, err := rt.Engine.Simulate(ctx, flow, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sim)
			case showGraph:
				fmt.Fprint(out, graph.GenerateMermaid(flow, &sim.Route))
				return nil
			default:
				return tui.Print(out, tui.SimulationMarkdown(sim))
			}
		},
	}
	cmd.Flags().StringVar(&fact, "fact", "", "Fact as inline JSON or @file (default: the flow's sample_fact)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the simulation record as JSON")
	cmd.Flags().BoolVar(&showGraph, "graph", false, "Print a Mermaid diagram highlighting the selected branch")
	return cmd
}
