package config

import (
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	apperrors "github.com/agbru/fibserve/internal/errors"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig("fibserve", nil, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.MaxIndex != DefaultMaxIndex {
		t.Errorf("MaxIndex = %d, want %d", cfg.MaxIndex, DefaultMaxIndex)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.HistoryPath != "" {
		t.Errorf("HistoryPath = %q, want empty (in-memory)", cfg.HistoryPath)
	}
	if cfg.Mode() != ModeServe {
		t.Errorf("Mode = %v, want serve", cfg.Mode())
	}
}

func TestParseConfig_Flags(t *testing.T) {
	args := []string{
		"-addr", ":9999",
		"-max-index", "93",
		"-history-db", "/tmp/history.db",
		"-workers", "4",
		"-sweep-interval", "5s",
		"-pending-age", "2s",
	}
	cfg, err := ParseConfig("fibserve", args, io.Discard)
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Addr)
	}
	if cfg.MaxIndex != 93 {
		t.Errorf("MaxIndex = %d, want 93", cfg.MaxIndex)
	}
	if cfg.HistoryPath != "/tmp/history.db" {
		t.Errorf("HistoryPath = %q, want /tmp/history.db", cfg.HistoryPath)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.SweepInterval != 5*time.Second {
		t.Errorf("SweepInterval = %v, want 5s", cfg.SweepInterval)
	}
	if cfg.PendingAge != 2*time.Second {
		t.Errorf("PendingAge = %v, want 2s", cfg.PendingAge)
	}
}

func TestParseConfig_ModeSelection(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Mode
	}{
		{name: "default is serve", args: nil, want: ModeServe},
		{name: "monitor flag", args: []string{"-monitor"}, want: ModeMonitor},
		{name: "submit flag", args: []string{"-submit", "25"}, want: ModeSubmit},
		{name: "submit zero is a valid submission", args: []string{"-submit", "0"}, want: ModeSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig("fibserve", tt.args, io.Discard)
			if err != nil {
				t.Fatalf("ParseConfig error: %v", err)
			}
			if cfg.Mode() != tt.want {
				t.Errorf("Mode = %v, want %v", cfg.Mode(), tt.want)
			}
		})
	}
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Run("env applies when flag is absent", func(t *testing.T) {
		t.Setenv(EnvPrefix+"MAX_INDEX", "77")
		t.Setenv(EnvPrefix+"ADDR", ":7777")

		cfg, err := ParseConfig("fibserve", nil, io.Discard)
		if err != nil {
			t.Fatalf("ParseConfig error: %v", err)
		}
		if cfg.MaxIndex != 77 {
			t.Errorf("MaxIndex = %d, want 77 (from env)", cfg.MaxIndex)
		}
		if cfg.Addr != ":7777" {
			t.Errorf("Addr = %q, want :7777 (from env)", cfg.Addr)
		}
	})

	t.Run("explicit flag beats env", func(t *testing.T) {
		t.Setenv(EnvPrefix+"MAX_INDEX", "77")

		cfg, err := ParseConfig("fibserve", []string{"-max-index", "50"}, io.Discard)
		if err != nil {
			t.Fatalf("ParseConfig error: %v", err)
		}
		if cfg.MaxIndex != 50 {
			t.Errorf("MaxIndex = %d, want 50 (flag wins)", cfg.MaxIndex)
		}
	})

	t.Run("invalid env value keeps default", func(t *testing.T) {
		t.Setenv(EnvPrefix+"MAX_INDEX", "not-a-number")

		cfg, err := ParseConfig("fibserve", nil, io.Discard)
		if err != nil {
			t.Fatalf("ParseConfig error: %v", err)
		}
		if cfg.MaxIndex != DefaultMaxIndex {
			t.Errorf("MaxIndex = %d, want default %d", cfg.MaxIndex, DefaultMaxIndex)
		}
	})

	t.Run("boolean env values", func(t *testing.T) {
		t.Setenv(EnvPrefix+"VERBOSE", "yes")

		cfg, err := ParseConfig("fibserve", nil, io.Discard)
		if err != nil {
			t.Fatalf("ParseConfig error: %v", err)
		}
		if !cfg.Verbose {
			t.Error("Verbose should be true from env value \"yes\"")
		}
	})
}

func TestParseConfig_HelpFlag(t *testing.T) {
	_, err := ParseConfig("fibserve", []string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("ParseConfig(-h) error = %v, want flag.ErrHelp", err)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	valid := AppConfig{
		Addr:            DefaultAddr,
		ServerURL:       DefaultServerURL,
		MaxIndex:        DefaultMaxIndex,
		Workers:         1,
		SubscribeBuffer: 1,
		SweepInterval:   DefaultSweepInterval,
		PendingAge:      DefaultPendingAge,
		Submit:          -1,
		WaitTimeout:     DefaultWaitTimeout,
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(*AppConfig) {}, wantErr: false},
		{name: "empty addr", mutate: func(c *AppConfig) { c.Addr = "" }, wantErr: true},
		{name: "zero workers", mutate: func(c *AppConfig) { c.Workers = 0 }, wantErr: true},
		{name: "zero buffer", mutate: func(c *AppConfig) { c.SubscribeBuffer = 0 }, wantErr: true},
		{name: "sweep without pending age", mutate: func(c *AppConfig) { c.PendingAge = 0 }, wantErr: true},
		{name: "disabled sweep needs no pending age", mutate: func(c *AppConfig) {
			c.SweepInterval = 0
			c.PendingAge = 0
		}, wantErr: false},
		{name: "monitor and submit together", mutate: func(c *AppConfig) {
			c.Monitor = true
			c.Submit = 5
		}, wantErr: true},
		{name: "wait without submit", mutate: func(c *AppConfig) { c.Wait = true }, wantErr: true},
		{name: "monitor without server url", mutate: func(c *AppConfig) {
			c.Monitor = true
			c.ServerURL = ""
		}, wantErr: true},
		{name: "verbose and quiet together", mutate: func(c *AppConfig) {
			c.Verbose = true
			c.Quiet = true
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate should fail")
				}
				var ce apperrors.ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("Validate error = %v, want a ConfigError", err)
				}
			} else if err != nil {
				t.Errorf("Validate error: %v", err)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeServe, "serve"},
		{ModeMonitor, "monitor"},
		{ModeSubmit, "submit"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}
