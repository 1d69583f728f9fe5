package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/internal/presentation/graph"
)

func newFlowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Manage stored flows",
		Long: `Lists, shows, imports, exports and deletes flows. Stored flows live in the
configured store; catalog flows are read-only and listed alongside them.`,
	}
	cmd.AddCommand(
		newFlowsListCmd(a),
		newFlowsShowCmd(a),
		newFlowsImportCmd(a),
		newFlowsExportCmd(a),
		newFlowsDeleteCmd(a),
		newFlowsGraphCmd(a),
	)
	return cmd
}

func newFlowsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored and catalog flow IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			ids, err := rt.Engine.ListFlows(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newFlowsShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <flow-id>",
		Short: "Print a flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			data, err := rt.Engine.ExportFlow(cmd.Context(), args[0], ruleflow.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(ruleflow.FormatYAML), "Output format: json or yaml")
	return cmd
}

func newFlowsImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Save flow documents to the store",
		Long:  `Imports JSON or YAML flow documents. Pass "-" to read one document from stdin.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			for _, path := range args {
				data, err := cli.ReadSource(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				format := ruleflow.FormatFromPath(path)
				if path == "-" {
					format = ""
				}
				flow, err := rt.Engine.ImportFlow(cmd.Context(), data, format)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				cli.PrintSystemMessage(cmd.OutOrStdout(), "Imported '%s'.", flow.ID)
			}
			return nil
		},
	}
}

func newFlowsExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <flow-id>",
		Short: "Write a flow document to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			f := ruleflow.Format(format)
			if format == "" {
				f = ruleflow.FormatJSON
				if output != "" {
					f = ruleflow.FormatFromPath(output)
				}
			}
			data, err := rt.Engine.ExportFlow(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (default: from --output, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: stdout)")
	return cmd
}

func newFlowsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <flow-id>",
		Short: "Delete a stored flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			if err := rt.Engine.DeleteFlow(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSystemMessage(cmd.OutOrStdout(), "Deleted '%s'.", args[0])
			return nil
		},
	}
}

func newFlowsGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph <flow-file|flow-id>",
		Short: "Export the flow as a Mermaid diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd)
			if err != nil {
				return err
			}
			flow, err := cli.LoadFlowArg(cmd.Context(), rt.Engine, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flow, nil))
			return nil
		},
	}
}
