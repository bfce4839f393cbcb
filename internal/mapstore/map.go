// Package mapstore ties bsp containers to files on disk: opening, backups,
// atomic saves and the extract, import and pack workflows.
package mapstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/samcharles93/vbsp/internal/logger"
	"github.com/samcharles93/vbsp/pkg/bsp"
)

// DefaultBackupSuffix is appended to the map path to name its backup.
const DefaultBackupSuffix = ".orig"

var (
	ErrNotRegularFile = errors.New("mapstore: not a regular file")
	ErrBackupExists   = errors.New("mapstore: backup already exists")
)

// Map is a container loaded from a file.
type Map struct {
	path      string
	container *bsp.Container
	log       logger.Logger
}

// Open loads the map at path.
func Open(path string, log logger.Logger) (*Map, error) {
	if log == nil {
		log = logger.Discard()
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	c, err := bsp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("map loaded", "path", path, "version", c.Version, "revision", c.Revision, "bytes", st.Size())
	return &Map{path: path, container: c, log: log}, nil
}

func (m *Map) Path() string              { return m.path }
func (m *Map) Container() *bsp.Container { return m.container }

// BackupPath returns the backup location for suffix.
func (m *Map) BackupPath(suffix string) string {
	return m.path + suffix
}

// LMPPath returns the side-file path for lump t: <dir>/<name>_l_<t>.lmp.
func (m *Map) LMPPath(t bsp.LumpType) string {
	dir, base := filepath.Split(m.path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_l_"+strconv.Itoa(int(t))+".lmp")
}

// CheckBackup fails with ErrBackupExists when the backup for suffix is
// already on disk. Callers use it before side effects that Save would
// otherwise strand.
func (m *Map) CheckBackup(suffix string) error {
	backup := m.BackupPath(suffix)
	_, err := os.Lstat(backup)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrBackupExists, backup)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// SaveOptions controls Save.
type SaveOptions struct {
	// BackupSuffix names the backup of the file being replaced. Empty disables it.
	BackupSuffix string
}

// Save writes the container back to its path. The new file is written to a
// temporary name in the same directory and renamed into place. With a backup
// suffix, the file being replaced is kept under that name; an existing backup
// is never overwritten.
func (m *Map) Save(opts SaveOptions) (backup string, err error) {
	if opts.BackupSuffix != "" {
		if err := m.CheckBackup(opts.BackupSuffix); err != nil {
			return "", err
		}
		backup = m.BackupPath(opts.BackupSuffix)
	}

	tmp := filepath.Join(filepath.Dir(m.path), "."+filepath.Base(m.path)+"."+uuid.NewString()+".tmp")
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := m.container.WriteFile(tmp); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if st, err := os.Stat(m.path); err == nil {
		if err := os.Chmod(tmp, st.Mode().Perm()); err != nil {
			return "", err
		}
	}

	if backup != "" {
		if err := linkOrCopy(m.path, backup); err != nil {
			return "", fmt.Errorf("backup %s: %w", m.path, err)
		}
		m.log.Info("backup saved", "path", backup)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return "", err
	}
	m.log.Info("map saved", "path", m.path)
	return backup, nil
}

// linkOrCopy preserves src at dst without touching src. dst must not exist.
func linkOrCopy(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrBackupExists, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrBackupExists, dst)
		}
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
