package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ruleflow/internal/cli"
	"github.com/aretw0/ruleflow/internal/config"
)

// app carries the global flags and the lazily built runtime.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	store      string
	storePath  string
	catalogDir string

	cfg *config.Config
	rt  *cli.Runtime
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"store":      "store.backend",
	"store-path": "store.path",
	"catalog":    "catalog.dir",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "ruleflow",
		Short: "Ruleflow evaluates branching automation flows",
		Long: `Ruleflow routes a flat fact through an ordered list of branches and
returns the actions of the first match, or the flow's else actions.
A preflight pass reports structural problems before a flow goes live.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.rt == nil {
				return nil
			}
			return a.rt.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&a.store, "store", "", "Flow store backend: memory, file or redis")
	flags.StringVar(&a.storePath, "store-path", "", "Directory of the file store")
	flags.StringVar(&a.catalogDir, "catalog", "", "Directory of read-only flow documents")

	rootCmd.AddCommand(
		newEvalCmd(a),
		newPreflightCmd(a),
		newSimulateCmd(a),
		newFlowsCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// config loads the file and environment, then applies changed flags.
func (a *app) config(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if len(overrides) > 0 {
		if err := cfg.Override(overrides); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	a.cfg = cfg
	return cfg, nil
}

// runtime builds the engine on first use. Logs go to stderr.
func (a *app) runtime(cmd *cobra.Command) (*cli.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	rt, err := cli.NewRuntime(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}
