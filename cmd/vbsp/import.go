package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func importCmd() *cli.Command {
	var (
		mapPath string
		lmpPath string
	)

	return &cli.Command{
		Name:  "import",
		Usage: "Restore a .lmp side-file into the lump it names",
		Flags: append([]cli.Flag{
			mapFlag(&mapPath),
			&cli.StringFlag{
				Name:        "lmp",
				Usage:       "path to .lmp side-file",
				Required:    true,
				Destination: &lmpPath,
			},
		}, saveFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := saveOptions(c)
			m, err := openForEdit(ctx, mapPath, opts)
			if err != nil {
				return err
			}

			t, err := m.ImportLump(lmpPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: import: %v", err), 1)
			}
			if err := save(m, opts); err != nil {
				return err
			}
			fmt.Printf("imported %s into lump %d (%s)\n", lmpPath, t, t)
			return nil
		},
	}
}
