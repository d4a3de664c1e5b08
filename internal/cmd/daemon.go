package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoth/thoth/internal/client"
	"github.com/thoth/thoth/internal/daemon"
	"github.com/thoth/thoth/internal/logger"
	"github.com/thoth/thoth/pkg/detector"
	"github.com/thoth/thoth/pkg/utils"
)

const startupWait = 5 * time.Second

func newStartCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}

			argv := []string{exe, "serve"}
			if opts.configPath != "" {
				argv = append(argv, "--config", opts.configPath)
			}

			proc, err := os.StartProcess(exe, argv, &os.ProcAttr{
				Env:   append(os.Environ(), daemonChildEnv+"=1"),
				Files: []*os.File{nil, nil, nil},
				Sys:   detachedAttr(),
			})
			if err != nil {
				return fmt.Errorf("failed to start daemon process: %w", err)
			}
			childPID := proc.Pid
			_ = proc.Release()

			out := cmd.OutOrStdout()
			p := newPalette(out)

			ctx, cancel := context.WithTimeout(cmd.Context(), startupWait)
			defer cancel()
			if err := waitHealthy(ctx, client.New(cfg)); err != nil {
				p.yellow.Fprintf(out, "Daemon started (PID: %d) but is not answering yet: %v\n", childPID, err)
			} else {
				p.green.Fprintf(out, "Daemon started successfully (PID: %d)\n", childPID)
			}
			fmt.Fprintf(out, "Web API available at: %s\n", cfg.BaseURL())
			if path, err := logger.FilePath(cfg.Log); err == nil {
				fmt.Fprintf(out, "Logs: %s\n", path)
			}
			return nil
		},
	}
}

func waitHealthy(ctx context.Context, c *client.Client) error {
	for {
		err := c.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func newStopCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}
			if !running {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}

			fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}

			newPalette(out).green.Fprintln(out, "Daemon stopped successfully")
			return nil
		},
	}
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return fmt.Errorf("failed to check daemon status: %w", err)
			}

			if !running {
				if asJSON {
					return printJSON(out, map[string]interface{}{"running": false})
				}
				p.red.Fprintln(out, "Status: Not running")
				fmt.Fprintf(out, "Display server: %s\n", detector.DetectDisplayServer())
				return nil
			}

			status, err := client.New(cfg).Status(cmd.Context())
			if err != nil {
				if errors.Is(err, client.ErrDaemonNotRunning) {
					p.yellow.Fprintf(out, "Status: PID %d alive but API unreachable at %s\n", pid, cfg.BaseURL())
					return nil
				}
				return err
			}

			if asJSON {
				return printJSON(out, status)
			}

			p.green.Fprintf(out, "Status: Running (PID: %d)\n", status.PID)
			fmt.Fprintf(out, "Uptime: %s\n", status.Uptime)
			fmt.Fprintf(out, "Web API: http://%s\n", status.Address)
			fmt.Fprintf(out, "Matcher: %s\n", status.Matcher)
			fmt.Fprintf(out, "History: %v\n", status.History)
			fmt.Fprintf(out, "Display server: %s\n", detector.DetectDisplayServer())
			if status.Index != nil {
				fmt.Fprintf(out, "\nIndex:\n")
				fmt.Fprintf(out, "  Applications: %d\n", status.Index.Count)
				fmt.Fprintf(out, "  Refreshes: %d\n", status.Index.Refreshes)
				if !status.Index.LastRefresh.IsZero() {
					fmt.Fprintf(out, "  Last refresh: %s (took %s)\n", utils.FormatAgo(status.Index.LastRefresh, time.Now()), status.Index.Took)
				}
			}
			fmt.Fprintf(out, "\nWindow:\n")
			fmt.Fprintf(out, "  Visible: %v\n", status.Window.Visible)
			if status.Window.Query != "" {
				fmt.Fprintf(out, "  Query: %q\n", status.Window.Query)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
