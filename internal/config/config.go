// Package config defines the application configuration: command-line flags,
// environment overrides and validation. Priority is CLI flags, then
// FIBSERVE_-prefixed environment variables, then defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	apperrors "github.com/agbru/fibserve/internal/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FIBSERVE_"

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultServerURL       = "http://localhost:8080"
	DefaultMaxIndex        = 40
	DefaultWorkers         = 1
	DefaultSubscribeBuffer = 256
	DefaultSweepInterval   = 30 * time.Second
	DefaultPendingAge      = 10 * time.Second
	DefaultWaitTimeout     = 30 * time.Second
)

// AppConfig holds the full application configuration across all modes.
type AppConfig struct {
	// Serve mode.
	Addr            string        // HTTP listen address
	MaxIndex        uint64        // inclusive cap on accepted indices
	HistoryPath     string        // SQLite file; empty selects the in-memory store
	Workers         int           // concurrent compute workers
	SubscribeBuffer int           // per-worker notification buffer
	SweepInterval   time.Duration // reconciliation cadence; 0 disables
	PendingAge      time.Duration // age at which a pending entry is stale

	// Client modes.
	ServerURL   string        // base URL for monitor and submit modes
	Submit      int64         // index to submit; negative means serve mode
	Wait        bool          // poll until the submitted value is computed
	WaitTimeout time.Duration // polling deadline in wait mode
	Monitor     bool          // run the TUI dashboard against ServerURL

	// Ambient.
	Verbose bool
	Quiet   bool
}

// ParseConfig parses flags and environment into an AppConfig.
//
// Parameters:
//   - programName: The name used in usage output.
//   - args: The command-line arguments, excluding the program name.
//   - errWriter: Destination for flag parsing errors and usage text.
//
// Returns:
//   - AppConfig: The parsed and validated configuration.
//   - error: flag.ErrHelp when help was requested, or a ConfigError.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := AppConfig{
		Addr:            DefaultAddr,
		ServerURL:       DefaultServerURL,
		MaxIndex:        DefaultMaxIndex,
		Workers:         DefaultWorkers,
		SubscribeBuffer: DefaultSubscribeBuffer,
		SweepInterval:   DefaultSweepInterval,
		PendingAge:      DefaultPendingAge,
		Submit:          -1,
		WaitTimeout:     DefaultWaitTimeout,
	}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (serve mode)")
	fs.Uint64Var(&cfg.MaxIndex, "max-index", cfg.MaxIndex, "largest accepted Fibonacci index")
	fs.StringVar(&cfg.HistoryPath, "history-db", cfg.HistoryPath, "SQLite history file (empty keeps history in memory)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of compute workers")
	fs.IntVar(&cfg.SubscribeBuffer, "buffer", cfg.SubscribeBuffer, "per-worker notification buffer size")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "reconciliation sweep cadence (0 disables)")
	fs.DurationVar(&cfg.PendingAge, "pending-age", cfg.PendingAge, "age at which a pending entry is recomputed")

	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server base URL (monitor and submit modes)")
	fs.Int64Var(&cfg.Submit, "submit", cfg.Submit, "submit this index to a running server and exit")
	fs.BoolVar(&cfg.Wait, "wait", cfg.Wait, "after submitting, poll until the value is computed")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "deadline for -wait polling")
	fs.BoolVar(&cfg.Monitor, "monitor", cfg.Monitor, "run the interactive dashboard against -server")

	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose logging")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging (shorthand)")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "suppress non-error output")
	fs.BoolVar(&cfg.Quiet, "q", cfg.Quiet, "suppress non-error output (shorthand)")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
//
// Returns:
//   - error: A ConfigError describing the first problem found, or nil.
func (c AppConfig) Validate() error {
	if c.Addr == "" {
		return apperrors.NewConfigError("listen address must not be empty")
	}
	if c.Workers < 1 {
		return apperrors.NewConfigError("workers must be at least 1, got %d", c.Workers)
	}
	if c.SubscribeBuffer < 1 {
		return apperrors.NewConfigError("buffer must be at least 1, got %d", c.SubscribeBuffer)
	}
	if c.SweepInterval > 0 && c.PendingAge <= 0 {
		return apperrors.NewConfigError("pending-age must be positive when the sweep is enabled")
	}
	if c.Monitor && c.Submit >= 0 {
		return apperrors.NewConfigError("-monitor and -submit are mutually exclusive")
	}
	if c.Wait && c.Submit < 0 {
		return apperrors.NewConfigError("-wait requires -submit")
	}
	if (c.Monitor || c.Submit >= 0) && c.ServerURL == "" {
		return apperrors.NewConfigError("server URL must not be empty")
	}
	if c.Verbose && c.Quiet {
		return apperrors.NewConfigError("-verbose and -quiet are mutually exclusive")
	}
	return nil
}

// Mode identifies which of the three run modes the configuration selects.
type Mode int

const (
	// ModeServe runs the HTTP service with its compute workers.
	ModeServe Mode = iota
	// ModeMonitor runs the interactive dashboard against a server.
	ModeMonitor
	// ModeSubmit submits one index to a server and exits.
	ModeSubmit
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeServe:
		return "serve"
	case ModeMonitor:
		return "monitor"
	case ModeSubmit:
		return "submit"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Mode resolves the run mode from the flag combination.
func (c AppConfig) Mode() Mode {
	switch {
	case c.Monitor:
		return ModeMonitor
	case c.Submit >= 0:
		return ModeSubmit
	default:
		return ModeServe
	}
}
