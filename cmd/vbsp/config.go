package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "VBSP_CONFIG"

// Config represents the vbsp configuration file (~/.config/vbsp/config.yaml).
// Booleans are pointers so we can distinguish "not set" from false.
type Config struct {
	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	JSON      *bool  `yaml:"json"`

	// Saving
	BackupSuffix string `yaml:"backup_suffix"`
	NoBackup     *bool  `yaml:"no_backup"`

	// Packing
	FilterFile string `yaml:"filter_file"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vbsp", "config.yaml")
}

// loadConfig reads the config file. A missing file yields a zero Config; a
// malformed one is an error.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLogConfig applies config file defaults to the logging flags when they
// were not set on the command line.
func applyLogConfig(c *cli.Command, cfg Config, level, format *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		*level = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		*format = cfg.LogFormat
	}
}

func applySaveConfig(c *cli.Command, cfg Config, suffix *string, skip *bool) {
	if cfg.BackupSuffix != "" && !c.IsSet("backup-suffix") {
		*suffix = cfg.BackupSuffix
	}
	if cfg.NoBackup != nil && !c.IsSet("no-backup") {
		*skip = *cfg.NoBackup
	}
}

func applyPakConfig(c *cli.Command, cfg Config, filterFile *string) {
	if cfg.FilterFile != "" && !c.IsSet("filter") {
		*filterFile = cfg.FilterFile
	}
}

func applyInspectConfig(c *cli.Command, cfg Config, asJSON *bool) {
	if cfg.JSON != nil && !c.IsSet("json") {
		*asJSON = *cfg.JSON
	}
}
