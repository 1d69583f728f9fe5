package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/pkg/domain"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		field, operator, value, fact string
		asJSON                       bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one condition against a fact",
		Long: `Evaluates a single field/operator/value condition against a flat fact and
prints true or false. The fact is inline JSON or @file ("@-" reads stdin).`,
		Example: `  ruleflow eval --field cart_value --operator ">" --value 100 --fact '{"cart_value": 180}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseFactArg(fact, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cond := domain.Condition{Field: field, Operator: domain.ParseOperator(operator), Value: value}
			if !cond.Operator.Valid() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: unknown operator %q never matches\n", operator)
			}
			matched := ruleflow.Evaluate(cond, f)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(map[string]any{"condition": cond, "matched": matched})
			}
			fmt.Fprintln(cmd.OutOrStdout(), matched)
			return nil
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "", "Fact field to read")
	cmd.Flags().StringVarP(&operator, "operator", "o", "equals", "Comparison operator")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Comparison value")
	cmd.Flags().StringVar(&fact, "fact", "", "Fact as inline JSON or @file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}
