package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/pkg/bsp"
)

func extractCmd() *cli.Command {
	var (
		mapPath string
		index   int
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Move a lump into a .lmp side-file and clear it in the map",
		Flags: append([]cli.Flag{
			mapFlag(&mapPath),
			&cli.IntFlag{
				Name:        "lump",
				Aliases:     []string{"l"},
				Usage:       fmt.Sprintf("lump index (0-%d)", bsp.LumpCount-1),
				Required:    true,
				Destination: &index,
			},
		}, saveFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			t, err := bsp.ParseLumpType(index)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			opts := saveOptions(c)
			m, err := openForEdit(ctx, mapPath, opts)
			if err != nil {
				return err
			}

			path, err := m.ExtractLump(t)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: extract: %v", err), 1)
			}
			if err := save(m, opts); err != nil {
				return err
			}
			fmt.Printf("extracted lump %d (%s) to %s\n", t, t, path)
			return nil
		},
	}
}
