// Package cli implements olympiadctl, the operator command line for the olympiad API.
package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-api/internal/config"
)

type options struct {
	tablesPath string
	loadConfig func() (config.Config, error)
	out        io.Writer
	logger     zerolog.Logger
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd(config.Load, os.Stdout).Execute()
}

func newRootCmd(load func() (config.Config, error), out io.Writer) *cobra.Command {
	opts := &options{
		loadConfig: load,
		out:        out,
		logger:     zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}

	cmd := &cobra.Command{
		Use:           "olympiadctl",
		Short:         "Operator tooling for the olympiad API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.tablesPath, "tables", os.Getenv("OLYMPIAD_TABLES_PATH"), "path to the reference tables file")
	cmd.AddCommand(newTablesCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newIncentivesCmd(opts))
	cmd.AddCommand(newAdminsCmd(opts))
	return cmd
}

// config loads the environment configuration, letting --tables override the tables path.
func (o *options) config() (config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if o.tablesPath != "" {
		cfg.TablesPath = o.tablesPath
	}
	return cfg, nil
}

func (o *options) resolvedTablesPath() string {
	if o.tablesPath != "" {
		return o.tablesPath
	}
	return "config/tables.yaml"
}
