package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/internal/logger"
	"github.com/samcharles93/vbsp/pkg/bsp"
)

func compareCmd() *cli.Command {
	var all bool

	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare the lumps of two maps",
		ArgsUsage: "A.bsp B.bsp",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "also list unchanged lumps", Destination: &all},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 2 {
				return cli.Exit("error: compare needs exactly two map paths", 1)
			}
			pathA, pathB := c.Args().Get(0), c.Args().Get(1)
			log := logger.FromContext(ctx)
			log.Debug("comparing maps", "a", pathA, "b", pathB)

			a, err := bsp.Open(pathA)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", pathA, err), 1)
			}
			b, err := bsp.Open(pathB)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", pathB, err), 1)
			}
			diffs, err := bsp.Compare(a, b)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: compare: %v", err), 1)
			}
			log.Debug("compared lumps", "lumps", len(diffs))
			printDiffs(os.Stdout, a, b, diffs, all)
			return nil
		},
	}
}

func printDiffs(w io.Writer, a, b *bsp.Container, diffs []bsp.LumpDiff, all bool) {
	if a.Version != b.Version || a.Revision != b.Revision {
		_, _ = fmt.Fprintf(w, "header: version %d -> %d, revision %d -> %d\n",
			a.Version, b.Version, a.Revision, b.Revision)
	}
	changed := 0
	for _, d := range diffs {
		if !d.Changed() {
			if all {
				_, _ = fmt.Fprintf(w, "%2d %-32s same     off=%d->%d size=%d\n",
					d.Type, d.Type, d.OffsetA, d.OffsetB, d.LenA)
			}
			continue
		}
		changed++
		first := "prefix"
		if d.FirstDiff >= 0 {
			first = fmt.Sprintf("first diff at %d", d.FirstDiff)
		}
		_, _ = fmt.Fprintf(w, "%2d %-32s changed  off=%d->%d size=%d->%d %016x->%016x %s\n",
			d.Type, d.Type, d.OffsetA, d.OffsetB, d.LenA, d.LenB, d.DigestA, d.DigestB, first)
	}
	if changed == 0 {
		_, _ = fmt.Fprintln(w, "lump bodies are identical")
		return
	}
	_, _ = fmt.Fprintf(w, "%d of %d lumps differ\n", changed, len(diffs))
}
