package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/thoth/thoth/internal/client"
	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/internal/web"
)

func newSearchCommand(opts *globalOptions) *cobra.Command {
	var asJSON, local bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank installed applications against a query",
		Long: `Rank installed applications against a query and print the best matches.

The running daemon answers from its index; with --local, or when no daemon
is running, the application directories are scanned directly.

Examples:
  thoth search fire
  thoth search "text edit" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			var results []models.Runnable
			err = withDaemonOrLocal(cmd.Context(), cfg, local,
				func(c *client.Client) error {
					results, err = c.Search(cmd.Context(), query)
					return err
				},
				func(a *app) error {
					results, err = a.search.Search(cmd.Context(), query)
					return err
				})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printRunnables(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&local, "local", false, "Scan directly instead of asking the daemon")
	return cmd
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Start an application by path",
		Long: `Start the application at path: a .desktop file, a Windows shortcut or
executable, or any file the desktop knows how to open.

The daemon only starts applications in its catalog; use --local to start
any other path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			var resp *web.RunResponse
			err = withDaemonOrLocal(cmd.Context(), cfg, local,
				func(c *client.Client) error {
					resp, err = c.Run(cmd.Context(), args[0])
					return err
				},
				func(a *app) error {
					res, runErr := a.runner.Run(cmd.Context(), args[0])
					resp = &web.RunResponse{OK: runErr == nil}
					if res != nil {
						resp.RunID = res.RunID
						resp.Name = res.Name
						resp.Method = res.Method
					}
					if runErr != nil {
						resp.Error = runErr.Error()
					}
					return nil
				})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)
			if !resp.OK {
				p.red.Fprintf(out, "Error running command: %s\n", resp.Error)
				return fmt.Errorf("failed to run %s", args[0])
			}
			p.green.Fprintf(out, "Started %s", resp.Name)
			p.gray.Fprintf(out, " (%s, run %s)\n", resp.Method, resp.RunID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Start directly instead of through the daemon")
	return cmd
}

func newListCommand(opts *globalOptions) *cobra.Command {
	var asJSON, local bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every discovered application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			var apps []models.Runnable
			err = withDaemonOrLocal(cmd.Context(), cfg, local,
				func(c *client.Client) error {
					apps, err = c.Apps(cmd.Context())
					return err
				},
				func(a *app) error {
					apps, err = a.search.All(cmd.Context())
					return err
				})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), apps)
			}
			printRunnables(cmd.OutOrStdout(), apps)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&local, "local", false, "Scan directly instead of asking the daemon")
	return cmd
}

func newRefreshCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rescan application directories in the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			stats, err := client.New(cfg).Refresh(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d applications in %s\n", stats.Count, stats.Took)
			return nil
		},
	}
}

func newWindowCommand(opts *globalOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			c := client.New(cfg)
			ctx := cmd.Context()
			switch action {
			case "show":
				_, err = c.Show(ctx)
			case "hide":
				_, err = c.Hide(ctx)
			case "toggle":
				_, err = c.Toggle(ctx)
			default:
				err = fmt.Errorf("unknown window action: %s", action)
			}
			return err
		},
	}
}

// withDaemonOrLocal calls remote against the running daemon, or local
// against an in-process stack when forced or when no daemon answers.
func withDaemonOrLocal(ctx context.Context, cfg *config.Config, forceLocal bool, remote func(*client.Client) error, local func(*app) error) error {
	if !forceLocal {
		err := remote(client.NewWithURL(cfg.BaseURL(), client.DefaultTimeout, 0))
		if err == nil || !errors.Is(err, client.ErrDaemonNotRunning) {
			return err
		}
		log.Debug("Daemon not reachable, running locally", "err", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return local(a)
}
