package main

import (
	"github.com/lixenwraith/mongolog"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by all commands
type rootOptions struct {
	configFile string
	overrides  []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mongolog",
		Short: "Write, read and prune structured log files",
		Long: `mongolog manages a directory of structured log files. Each file holds one
relaxed Extended JSON document per line and is named after the ObjectID
that identifies it, optionally gzip compressed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "TOML config file with a [mongolog] table")
	root.PersistentFlags().StringArrayVar(&opts.overrides, "set", nil, "config override as key=value, repeatable")

	root.AddCommand(
		newCleanupCmd(opts),
		newCatCmd(),
		newEmitCmd(opts),
	)
	return root
}

// loadConfig resolves the config file and then the --set overrides
func (o *rootOptions) loadConfig() (*mongolog.Config, error) {
	cfg := mongolog.DefaultConfig()
	if o.configFile != "" {
		loaded, err := mongolog.NewConfigFromFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(o.overrides) == 0 {
		return cfg, cfg.Validate()
	}
	return cfg.ApplyOverride(o.overrides...)
}
