package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/daemon"
	"github.com/thoth/thoth/internal/database"
	"github.com/thoth/thoth/internal/discovery"
	"github.com/thoth/thoth/internal/icons"
	"github.com/thoth/thoth/internal/index"
	"github.com/thoth/thoth/internal/logger"
	"github.com/thoth/thoth/internal/reporter"
	"github.com/thoth/thoth/internal/runner"
	"github.com/thoth/thoth/internal/search"
	"github.com/thoth/thoth/internal/shell"
	"github.com/thoth/thoth/internal/web"
	"github.com/thoth/thoth/pkg/detector"
)

const retentionSweep = 24 * time.Hour

var errHistoryUnavailable = errors.New("launch history unavailable")

func newServeCommand(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon in the foreground",
		Long: `Run the launcher daemon in the foreground: index the installed
applications, keep the index fresh and serve the launcher API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if os.Getenv(daemonChildEnv) == "1" {
				cfg.Log.File = true
			}
			return runServe(cmd.Context(), cfg, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override the configured web port")
	return cmd
}

// app holds the components shared by the daemon and the local fallbacks.
type app struct {
	config   *config.Config
	db       *database.DB
	repo     *database.Repository
	finder   discovery.Finder
	index    *index.Index
	search   *search.Service
	runner   *runner.Runner
	activate func() error
}

// newApp builds the search and launch stack. withIndex attaches an
// in-memory catalog; without it every search scans.
func newApp(cfg *config.Config, withIndex bool) (*app, error) {
	finder, err := discovery.New(discovery.Options{
		ExtraDirs: cfg.Index.ExtraDirs,
		Locale:    cfg.Search.Locale,
		Workers:   cfg.Index.Workers,
	})
	if err != nil {
		if errors.Is(err, discovery.ErrMissingEnv) {
			log.Fatal("Cannot locate application directories", "err", err)
		}
		return nil, err
	}

	a := &app{config: cfg, finder: finder}

	if cfg.History.Enabled {
		db, err := database.Connect(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errHistoryUnavailable, err)
		}
		if err := db.Initialize(); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", errHistoryUnavailable, err)
		}
		a.db = db
		a.repo = database.NewRepository(db)
	}

	var searchOpts []search.Option
	if withIndex {
		a.index = index.New(finder)
		searchOpts = append(searchOpts, search.WithCatalog(a.index))
	}
	if a.repo != nil {
		searchOpts = append(searchOpts, search.WithHistory(a.repo))
	}
	if cfg.Search.ResolveIcons {
		searchOpts = append(searchOpts, search.WithIcons(icons.NewResolver(discovery.DataDirs(), 0)))
	}

	a.search, err = search.NewService(cfg, finder, searchOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	var runOpts []runner.Option
	if a.repo != nil {
		runOpts = append(runOpts, runner.WithRecorder(a.repo))
	}
	if cfg.Runner.FocusExisting {
		act, err := detector.New()
		if err != nil {
			log.Warn("Window activation unavailable", "err", err)
		} else {
			status := "ready"
			if st, ok := act.(interface{ GetStatus() string }); ok {
				status = st.GetStatus()
			}
			log.Debug("Window activator ready", "display", act.GetDisplayServer(), "status", status)
			runOpts = append(runOpts, runner.WithActivator(act))
			a.activate = act.Close
		}
	}
	a.runner = runner.New(cfg, runOpts...)

	return a, nil
}

func (a *app) Close() {
	if a.activate != nil {
		if err := a.activate(); err != nil {
			log.Debug("Error closing window activator", "err", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn("Error closing database", "err", err)
		}
	}
}

func runServe(parent context.Context, cfg *config.Config, port int) error {
	if parent == nil {
		parent = context.Background()
	}
	if port > 0 {
		cfg.Web.Port = port
	}

	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	defer logger.CatchPanic()

	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			_, pid, _ := dm.IsRunning()
			return fmt.Errorf("daemon is already running (PID: %d)", pid)
		}
		return err
	}
	defer func() {
		if err := dm.Release(); err != nil {
			log.Warn("Error releasing PID file", "err", err)
		}
	}()

	a, err := newApp(cfg, true)
	if err != nil {
		if errors.Is(err, errHistoryUnavailable) {
			log.Fatal("Failed to open database", "err", err)
		}
		return err
	}
	defer a.Close()

	window := newLauncherWindow()
	deps := web.Deps{
		Search:  a.search,
		Runner:  a.runner,
		Window:  window,
		Catalog: a.index,
	}
	var store index.ErrorStore
	if a.repo != nil {
		deps.Reports = reporter.New(a.repo)
		store = a.repo
	}

	indexSvc := index.NewService(cfg, a.index, store)
	webServer := web.NewServer(cfg, web.NewHandler(cfg, deps), 0)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 1)
	logger.GoSafe(func() {
		serverErr <- webServer.Start()
	})

	logger.GoSafe(func() {
		if err := indexSvc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Index error", "err", err)
		}
	})

	if a.repo != nil && cfg.History.RetentionDays > 0 {
		logger.GoSafe(func() { sweepHistory(ctx, a.repo, cfg.History.RetentionDays) })
	}

	log.Info("Starting thoth daemon", "pid", os.Getpid(), "address", webServer.GetAddress(), "matcher", a.search.Matcher())
	log.Debug(cfg.String())

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case <-window.Done():
		log.Info("Launcher window quit")
	case err := <-serverErr:
		if err != nil {
			log.Error("Web server error", "err", err)
			cancel()
			indexSvc.Stop()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	indexSvc.Stop()
	window.Quit()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down web server", "err", err)
	}

	log.Info("Daemon stopped successfully")
	return nil
}

// newLauncherWindow returns the window state the daemon starts with: shown
// and focused, ready for typing.
func newLauncherWindow() *shell.Window {
	w := shell.NewWindow()
	w.Show()
	return w
}

// sweepHistory deletes launches older than days, now and once a day.
func sweepHistory(ctx context.Context, repo *database.Repository, days int) {
	sweep := func() {
		cutoff := time.Now().AddDate(0, 0, -days)
		n, err := repo.DeleteOldLaunches(cutoff)
		if err != nil {
			log.Warn("Failed to prune launch history", "err", err)
			return
		}
		if n > 0 {
			log.Info("Pruned launch history", "deleted", n, "before", cutoff.Format(time.DateOnly))
		}
	}

	sweep()
	ticker := time.NewTicker(retentionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
