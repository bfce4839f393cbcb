package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/internal/mapstore"
)

func TestConfigPath(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "custom.yaml")
		t.Setenv(envConfigPath, want)
		if got := configPath(); got != want {
			t.Fatalf("unexpected config path: got %q want %q", got, want)
		}
	})

	t.Run("user config dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(envConfigPath, "")
		t.Setenv("XDG_CONFIG_HOME", dir)
		want := filepath.Join(dir, "vbsp", "config.yaml")
		if got := configPath(); got != want {
			t.Fatalf("unexpected config path: got %q want %q", got, want)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file is empty config", func(t *testing.T) {
		got, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatalf("loadConfig returned error: %v", err)
		}
		if got != (Config{}) {
			t.Fatalf("expected zero config, got %+v", got)
		}
	})

	t.Run("all keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := "log_level: debug\nlog_format: json\njson: true\nbackup_suffix: .bak\nno_backup: false\nfilter_file: ship.txt\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		got, err := loadConfig(path)
		if err != nil {
			t.Fatalf("loadConfig returned error: %v", err)
		}
		if got.LogLevel != "debug" || got.LogFormat != "json" || got.BackupSuffix != ".bak" || got.FilterFile != "ship.txt" {
			t.Fatalf("unexpected config: %+v", got)
		}
		if got.JSON == nil || !*got.JSON {
			t.Fatalf("expected json: true, got %v", got.JSON)
		}
		if got.NoBackup == nil || *got.NoBackup {
			t.Fatalf("expected no_backup: false to be set, got %v", got.NoBackup)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("log_level: [unterminated\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadConfig(path); err == nil {
			t.Fatalf("expected error for malformed config")
		}
	})
}

func runSaveOptions(t *testing.T, conf Config, args ...string) mapstore.SaveOptions {
	t.Helper()
	prev := cfg
	cfg = conf
	defer func() { cfg = prev }()

	var got mapstore.SaveOptions
	cmd := &cli.Command{
		Name:  "test",
		Flags: saveFlags(),
		Action: func(_ context.Context, c *cli.Command) error {
			got = saveOptions(c)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return got
}

func TestSaveOptions(t *testing.T) {
	yes := true

	tests := []struct {
		name string
		conf Config
		args []string
		want string
	}{
		{name: "default suffix", want: mapstore.DefaultBackupSuffix},
		{name: "config suffix", conf: Config{BackupSuffix: ".bak"}, want: ".bak"},
		{name: "flag beats config", conf: Config{BackupSuffix: ".bak"}, args: []string{"--backup-suffix", ".old"}, want: ".old"},
		{name: "config disables backup", conf: Config{NoBackup: &yes}, want: ""},
		{name: "flag disables backup", args: []string{"--no-backup"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runSaveOptions(t, tt.conf, tt.args...)
			if got.BackupSuffix != tt.want {
				t.Fatalf("unexpected backup suffix: got %q want %q", got.BackupSuffix, tt.want)
			}
		})
	}
}

func TestApplyLogConfig(t *testing.T) {
	var level, format string
	conf := Config{LogLevel: "warn", LogFormat: "json"}
	cmd := &cli.Command{
		Name:  "test",
		Flags: loggingFlags(),
		Action: func(_ context.Context, c *cli.Command) error {
			level, format = logLevel, logFormat
			applyLogConfig(c, conf, &level, &format)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"test", "--log-format", "text"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if level != "warn" {
		t.Fatalf("expected config log level, got %q", level)
	}
	if format != "text" {
		t.Fatalf("expected flag log format to win, got %q", format)
	}
}
