package mapstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/samcharles93/vbsp/internal/pakfilter"
	"github.com/samcharles93/vbsp/pkg/bsp"
)

// progressEvery is how many packed files pass between progress lines.
const progressEvery = 50

// ExtractLump writes lump t to its side-file and clears it in memory. The map
// is not saved. A lump that is already absent or cleared fails with
// bsp.ErrLumpEmpty.
func (m *Map) ExtractLump(t bsp.LumpType) (string, error) {
	l, err := m.container.Lump(t)
	if err != nil {
		return "", err
	}
	if l.IsEmpty() {
		return "", fmt.Errorf("%w: lump %d (%s)", bsp.ErrLumpEmpty, t, t)
	}

	path := m.LMPPath(t)
	if err := m.container.WriteLMPFile(path, t); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	m.log.Info("lump extracted", "lump", int(t), "name", t.String(), "bytes", l.Len(), "path", path)

	l.Clear()
	return path, nil
}

// ImportLump restores a side-file into the lump it names. The map is not saved.
func (m *Map) ImportLump(path string) (bsp.LumpType, error) {
	lmp, err := bsp.ReadLMPFile(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if lmp.Revision != m.container.Revision {
		m.log.Warn("side-file revision differs from map",
			"lmp_revision", lmp.Revision, "map_revision", m.container.Revision)
	}
	if err := m.container.ImportLMP(lmp); err != nil {
		return 0, fmt.Errorf("import lump %d (%s): %w", lmp.Type, lmp.Type, err)
	}
	m.log.Info("lump imported", "lump", int(lmp.Type), "name", lmp.Type.String(), "bytes", len(lmp.Data))
	return lmp.Type, nil
}

// PackResult counts what Pack did, or would do on a dry run.
type PackResult struct {
	Added    int
	Replaced int
	Bytes    int64
}

// Pack stores every entry in the pakfile uncompressed, overwriting members
// with the same name. The map is not saved. With dryRun the pakfile is only
// read.
func (m *Map) Pack(entries []pakfilter.Entry, dryRun bool) (res PackResult, err error) {
	pak := m.container.Pakfile()
	mode := bsp.ModeUpdate
	if dryRun {
		mode = bsp.ModeRead
	}
	a, err := pak.OpenArchive(mode)
	if err != nil {
		return PackResult{}, fmt.Errorf("open pakfile: %w", err)
	}
	defer func() {
		if cerr := pak.CloseArchive(); err == nil && cerr != nil {
			err = fmt.Errorf("close pakfile: %w", cerr)
		}
	}()

	m.log.Info("packing files", "files", len(entries), "existing", a.Len(), "dry_run", dryRun)
	for i, e := range entries {
		if i%progressEvery == 0 {
			m.log.Info("packing", "done", i, "total", len(entries))
		}

		exists := true
		if _, err := a.Member(e.Name); errors.Is(err, bsp.ErrMemberNotFound) {
			exists = false
		} else if err != nil {
			return PackResult{}, err
		}
		if exists {
			m.log.Info("already packed, overwriting", "member", e.Name)
			res.Replaced++
		} else {
			res.Added++
		}

		if dryRun {
			res.Bytes += e.Size
			m.log.Debug("would pack", "member", e.Name, "source", e.Path)
			continue
		}
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return PackResult{}, err
		}
		if _, err := a.Put(e.Name, data); err != nil {
			return PackResult{}, fmt.Errorf("pack %s: %w", e.Name, err)
		}
		res.Bytes += int64(len(data))
		m.log.Debug("packed", "member", e.Name, "bytes", len(data))
	}
	return res, nil
}
