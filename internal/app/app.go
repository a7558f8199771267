// Package app wires the configuration, stores, gateway, workers and HTTP
// server into a runnable application and dispatches between its run modes.
package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibserve/internal/cache"
	"github.com/agbru/fibserve/internal/cli"
	"github.com/agbru/fibserve/internal/config"
	apperrors "github.com/agbru/fibserve/internal/errors"
	"github.com/agbru/fibserve/internal/fibonacci"
	"github.com/agbru/fibserve/internal/gateway"
	"github.com/agbru/fibserve/internal/history"
	"github.com/agbru/fibserve/internal/logging"
	"github.com/agbru/fibserve/internal/server"
	"github.com/agbru/fibserve/internal/tui"
	"github.com/agbru/fibserve/internal/worker"
)

// Application represents the fibserve application instance.
type Application struct {
	Config     config.AppConfig
	Calculator fibonacci.Calculator
	ErrWriter  io.Writer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithCalculator sets a custom Fibonacci calculator for the compute workers.
func WithCalculator(c fibonacci.Calculator) AppOption {
	return func(a *Application) { a.Calculator = c }
}

// New creates a new Application instance by parsing command-line arguments.
//
// Parameters:
//   - args: The full argument vector, os.Args style.
//   - errWriter: Destination for parse errors and usage text.
//   - opts: Optional configuration.
//
// Returns:
//   - *Application: The configured application.
//   - error: flag.ErrHelp when help was requested, or a ConfigError.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}
	if app.Calculator == nil {
		app.Calculator = fibonacci.NewIterative()
	}

	programName := "fibserve"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The root context.
//   - out: Destination for user-facing output.
//
// Returns:
//   - int: The process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	switch {
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	switch a.Config.Mode() {
	case config.ModeSubmit:
		return a.runSubmit(ctx, out)
	case config.ModeMonitor:
		return a.runMonitor(ctx)
	default:
		return a.runServe(ctx)
	}
}

// runSubmit sends one index to a running server.
func (a *Application) runSubmit(ctx context.Context, out io.Writer) int {
	client := cli.NewClient(a.Config.ServerURL)
	return cli.RunSubmit(ctx, client, cli.SubmitOptions{
		Index:       a.Config.Submit,
		Wait:        a.Config.Wait,
		WaitTimeout: a.Config.WaitTimeout,
		Quiet:       a.Config.Quiet,
	}, out, a.ErrWriter)
}

// runMonitor launches the interactive dashboard.
func (a *Application) runMonitor(ctx context.Context) int {
	client := cli.NewClient(a.Config.ServerURL)
	return tui.Run(ctx, client, Version)
}

// runServe starts the HTTP service and its compute workers, blocking until
// shutdown.
func (a *Application) runServe(ctx context.Context) int {
	logger := logging.NewLogger(os.Stderr, "fibserve")

	historyStore, closeHistory, err := a.openHistoryStore(logger)
	if err != nil {
		logger.Error("opening history store failed", err)
		return apperrors.ExitErrorStore
	}
	defer closeHistory()

	cacheStore := cache.NewMemoryStore()
	gw := gateway.New(historyStore, cacheStore, a.Config.MaxIndex,
		gateway.WithLogger(logger))
	srv := server.New(gw, server.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe(ctx, a.Config.Addr)
	})

	for i := 0; i < a.Config.Workers; i++ {
		w := worker.New(cacheStore, a.Calculator,
			worker.WithLogger(logger),
			worker.WithBuffer(a.Config.SubscribeBuffer),
			worker.WithSweep(a.Config.SweepInterval, a.Config.PendingAge))
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	logger.Info("service started",
		logging.String("addr", a.Config.Addr),
		logging.Uint64("max_index", a.Config.MaxIndex),
		logging.Int("workers", a.Config.Workers))

	if err := g.Wait(); err != nil {
		if apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		logger.Error("service failed", err)
		if apperrors.IsStore(err) {
			return apperrors.ExitErrorStore
		}
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// openHistoryStore selects the SQLite store when a path is configured, the
// in-memory store otherwise.
func (a *Application) openHistoryStore(logger logging.Logger) (history.Store, func(), error) {
	if a.Config.HistoryPath == "" {
		logger.Info("using in-memory history store")
		return history.NewMemoryStore(), func() {}, nil
	}

	store, err := history.OpenSQLite(a.Config.HistoryPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite history store",
		logging.String("path", a.Config.HistoryPath))
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Error("closing history store failed", err)
		}
	}
	return store, closeStore, nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
