package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/internal/logger"
	"github.com/samcharles93/vbsp/internal/mapstore"
	"github.com/samcharles93/vbsp/internal/pakfilter"
)

func pakCmd() *cli.Command {
	var (
		mapPath    string
		contentDir string
		filterFile string
		dryRun     bool
	)

	return &cli.Command{
		Name:  "pak",
		Usage: "Embed loose content files in the map's pakfile",
		Flags: append([]cli.Flag{
			mapFlag(&mapPath),
			&cli.StringFlag{
				Name:        "content",
				Aliases:     []string{"c"},
				Usage:       "content directory to pack",
				Required:    true,
				Destination: &contentDir,
			},
			&cli.StringFlag{
				Name:        "filter",
				Usage:       "whitelist file inside the content directory (gitignore syntax)",
				Value:       pakfilter.DefaultFilterFile,
				Destination: &filterFile,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Aliases:     []string{"n"},
				Usage:       "report what would be packed without changing the map",
				Destination: &dryRun,
			},
		}, saveFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyPakConfig(c, cfg, &filterFile)
			opts := saveOptions(c)

			found, err := pakfilter.Find(contentDir, filterFile)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: scan content: %v", err), 1)
			}
			if found.Filtered {
				log.Info("filter applied", "file", filterFile, "matched", len(found.Entries), "skipped", found.Skipped)
			}
			if len(found.Entries) == 0 {
				return cli.Exit(fmt.Sprintf("error: no files to pack in %s", contentDir), 1)
			}

			if dryRun {
				opts = mapstore.SaveOptions{}
			}
			m, err := openForEdit(ctx, mapPath, opts)
			if err != nil {
				return err
			}
			res, err := m.Pack(found.Entries, dryRun)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: pack: %v", err), 1)
			}
			if dryRun {
				fmt.Printf("dry run: would add %d and overwrite %d files (%s)\n",
					res.Added, res.Replaced, formatBytes(uint64(res.Bytes)))
				return nil
			}
			if err := save(m, opts); err != nil {
				return err
			}
			fmt.Printf("packed %d new and %d overwritten files (%s)\n",
				res.Added, res.Replaced, formatBytes(uint64(res.Bytes)))
			return nil
		},
	}
}
