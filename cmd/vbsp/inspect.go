package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vbsp/internal/logger"
	"github.com/samcharles93/vbsp/pkg/bsp"
)

type inspectReport struct {
	Path     string           `json:"path"`
	Size     int64            `json:"size"`
	Version  int32            `json:"version"`
	Revision int32            `json:"revision"`
	Lumps    []lumpReport     `json:"lumps"`
	Absent   int              `json:"absent"`
	Items    []gameItemReport `json:"game_items,omitempty"`
	Members  []memberReport   `json:"pak_members,omitempty"`
}

type lumpReport struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Offset  int32  `json:"offset"`
	Length  int    `json:"length"`
	Version int32  `json:"version"`
	Ident   int32  `json:"ident"`
	Digest  string `json:"xxhash64"`
}

type gameItemReport struct {
	ID      string `json:"id"`
	Flags   uint16 `json:"flags"`
	Version uint16 `json:"version"`
	Offset  int32  `json:"local_offset"`
	Length  int    `json:"length"`
}

type memberReport struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func inspectCmd() *cli.Command {
	var (
		mapPath     string
		showItems   bool
		showMembers bool
		asJSON      bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the header and lump directory of a map",
		Flags: []cli.Flag{
			mapFlag(&mapPath),
			&cli.BoolFlag{Name: "items", Usage: "list game lump items", Destination: &showItems},
			&cli.BoolFlag{Name: "members", Usage: "list pakfile members", Destination: &showMembers},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyInspectConfig(c, cfg, &asJSON)

			stat, err := os.Stat(mapPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat map %q: %v", mapPath, err), 1)
			}
			log.Debug("inspecting map", "path", mapPath, "size", stat.Size())
			container, err := bsp.Open(mapPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open map: %v", err), 1)
			}
			if container.GameLump().Detached() {
				log.Debug("game lump kept verbatim", "path", mapPath)
			}

			rep, err := buildReport(container, showItems, showMembers)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			rep.Path = mapPath
			rep.Size = stat.Size()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(os.Stdout, rep, showItems, showMembers)
			return nil
		},
	}
}

func buildReport(c *bsp.Container, items, members bool) (inspectReport, error) {
	rep := inspectReport{Version: c.Version, Revision: c.Revision}
	for _, l := range c.ByDataOrder() {
		if l.IsAbsent() {
			rep.Absent++
			continue
		}
		data, err := l.Data()
		if err != nil {
			return rep, fmt.Errorf("lump %d (%s): %w", l.Type(), l.Type(), err)
		}
		rep.Lumps = append(rep.Lumps, lumpReport{
			Index:   int(l.Type()),
			Name:    l.Type().String(),
			Kind:    l.Kind().String(),
			Offset:  l.Offset,
			Length:  len(data),
			Version: l.Version,
			Ident:   l.Ident,
			Digest:  fmt.Sprintf("%016x", bsp.Digest(data)),
		})
	}

	if items {
		for _, it := range c.GameLump().Items() {
			rep.Items = append(rep.Items, gameItemReport{
				ID:      fourCC(it.ID),
				Flags:   it.Flags,
				Version: it.Version,
				Offset:  it.LocalOffset(),
				Length:  len(it.Data),
			})
		}
	}

	if members {
		pak := c.Pakfile()
		a, err := pak.OpenArchive(bsp.ModeRead)
		if err != nil {
			return rep, fmt.Errorf("open pakfile: %w", err)
		}
		for _, m := range a.Members() {
			rep.Members = append(rep.Members, memberReport{Name: m.Name(), Size: m.Size(), Modified: m.Modified()})
		}
		if err := pak.CloseArchive(); err != nil {
			return rep, fmt.Errorf("close pakfile: %w", err)
		}
	}
	return rep, nil
}

func printReport(w io.Writer, rep inspectReport, items, members bool) {
	_, _ = fmt.Fprintf(w, "VBSP Inspect: %s\n", rep.Path)
	_, _ = fmt.Fprintf(w, "File: %s (%s)\n", filepath.Base(rep.Path), formatBytes(uint64(rep.Size)))
	_, _ = fmt.Fprintf(w, "Header: version=%d revision=%d lumps=%d absent=%d\n",
		rep.Version, rep.Revision, len(rep.Lumps), rep.Absent)

	section(w, "Lumps (data order)")
	for _, l := range rep.Lumps {
		_, _ = fmt.Fprintf(w, "%2d %-32s %-7s v%-2d off=%-10d size=%-12s %s\n",
			l.Index, l.Name, l.Kind, l.Version, l.Offset, formatBytes(uint64(l.Length)), l.Digest)
	}

	if items {
		section(w, "Game Lump Items")
		if len(rep.Items) == 0 {
			_, _ = fmt.Fprintln(w, "(none)")
		}
		for _, it := range rep.Items {
			_, _ = fmt.Fprintf(w, "%-6s v%-2d flags=%#04x off=%-8d size=%s\n",
				it.ID, it.Version, it.Flags, it.Offset, formatBytes(uint64(it.Length)))
		}
	}

	if members {
		section(w, "Pakfile Members")
		if len(rep.Members) == 0 {
			_, _ = fmt.Fprintln(w, "(none)")
		}
		var total int64
		for _, m := range rep.Members {
			total += m.Size
			_, _ = fmt.Fprintf(w, "%-12s %s  %s\n",
				formatBytes(uint64(m.Size)), m.Modified.Format(time.DateTime), m.Name)
		}
		if len(rep.Members) > 0 {
			_, _ = fmt.Fprintf(w, "%d members, %s\n", len(rep.Members), formatBytes(uint64(total)))
		}
	}
}

// fourCC renders a game lump item ID as its four-character code when
// printable.
func fourCC(id int32) string {
	b := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(id))
		}
	}
	return string(b)
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	_, _ = fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
