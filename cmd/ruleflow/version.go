package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ruleflow",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ruleflow version %s\n", ruleflow.Version)
		},
	}
}
