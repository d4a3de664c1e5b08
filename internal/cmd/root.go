// Package cmd implements the thoth command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoth/thoth/internal/config"
)

// Injected at build time via -ldflags
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// daemonChildEnv marks the detached process started by `thoth start`.
const daemonChildEnv = "THOTH_DAEMON_CHILD"

type globalOptions struct {
	configPath string
}

// load reads the config file, applies environment overrides and validates.
func (o *globalOptions) load() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("THOTH_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewRootCommand creates and returns the root cobra command for thoth
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "thoth",
		Short: "Fuzzy application launcher",
		Long: `thoth discovers the applications installed on this machine, ranks them
against what you type and starts the one you pick.

A background daemon keeps the catalog fresh and serves the launcher window
over a local HTTP API; the commands below drive it.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/thoth/config.yaml or $THOTH_CONFIG)")

	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newStopCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newWindowCommand(opts, "show", "Show, center and focus the launcher window"))
	cmd.AddCommand(newWindowCommand(opts, "hide", "Hide the launcher window"))
	cmd.AddCommand(newWindowCommand(opts, "toggle", "Show the launcher window if hidden, hide it otherwise"))
	cmd.AddCommand(newRefreshCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newClearCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "thoth version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", Commit)
			fmt.Fprintf(out, "  built:  %s\n", Date)
		},
	}
}

func newConfigCommand(opts *globalOptions) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !asYAML {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML, suitable for config.yaml")
	return cmd
}
