package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/internal/logger"
	"github.com/samcharles93/vbsp/internal/mapstore"
)

var (
	logLevel     string
	logFormat    string
	debug        bool
	backupSuffix string
	noBackup     bool

	// cfg is the config file loaded by setup.
	cfg Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func mapFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "map",
		Aliases:     []string{"m"},
		Usage:       "path to .bsp file",
		Destination: dst,
		Required:    true,
	}
}

func saveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backup-suffix",
			Usage:       "suffix appended to the map path for the backup copy",
			Value:       mapstore.DefaultBackupSuffix,
			Destination: &backupSuffix,
		},
		&cli.BoolFlag{
			Name:        "no-backup",
			Usage:       "replace the map without keeping a backup",
			Destination: &noBackup,
		},
	}
}

// saveOptions resolves the backup flags against the config file.
func saveOptions(c *cli.Command) mapstore.SaveOptions {
	applySaveConfig(c, cfg, &backupSuffix, &noBackup)
	if noBackup {
		return mapstore.SaveOptions{}
	}
	return mapstore.SaveOptions{BackupSuffix: backupSuffix}
}

// setup loads the config file and installs the logger into the context.
func setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	loaded, err := loadConfig(configPath())
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	cfg = loaded
	applyLogConfig(c, cfg, &logLevel, &logFormat)

	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logger.WithContext(ctx, logger.ForFormat(format, os.Stderr, level)), nil
}

// openForEdit opens a map and refuses early when its backup is in the way, so
// no side-file is written for an edit that could not be saved.
func openForEdit(ctx context.Context, path string, opts mapstore.SaveOptions) (*mapstore.Map, error) {
	m, err := mapstore.Open(path, logger.FromContext(ctx))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: open map: %v", err), 1)
	}
	if opts.BackupSuffix != "" {
		if err := m.CheckBackup(opts.BackupSuffix); err != nil {
			return nil, cli.Exit(fmt.Sprintf("error: %v (remove it or pass --no-backup)", err), 1)
		}
	}
	return m, nil
}

func save(m *mapstore.Map, opts mapstore.SaveOptions) error {
	if _, err := m.Save(opts); err != nil {
		return cli.Exit(fmt.Sprintf("error: save map: %v", err), 1)
	}
	return nil
}
