// Package pakfilter finds loose content files to embed in a map's pakfile.
//
// A content directory may hold a filter file (".pakfilter" by default) using
// gitignore syntax. Unlike a .gitignore it is a whitelist: only matching files
// are packed. Without a filter file every regular file is packed.
package pakfilter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultFilterFile is the whitelist file name looked up in the content root.
const DefaultFilterFile = ".pakfilter"

// Entry is one file to pack.
type Entry struct {
	// Name is the archive member name: the path relative to the content root,
	// slash separated.
	Name string
	// Path is the file on disk.
	Path string
	Size int64
}

// Result is the outcome of a walk.
type Result struct {
	Entries []Entry
	// Filtered is set when a filter file was found and applied.
	Filtered bool
	// Skipped counts regular files rejected by the filter.
	Skipped int
}

// Find walks root recursively and returns the files to pack, sorted by name.
// filterFile names the whitelist inside root; empty selects DefaultFilterFile.
// The filter file itself is never returned.
func Find(root, filterFile string) (Result, error) {
	if filterFile == "" {
		filterFile = DefaultFilterFile
	}
	st, err := os.Stat(root)
	if err != nil {
		return Result{}, err
	}
	if !st.IsDir() {
		return Result{}, fmt.Errorf("pakfilter: %s is not a directory", root)
	}

	var res Result
	var filter *ignore.GitIgnore
	filterPath := filepath.Join(root, filterFile)
	switch _, err := os.Stat(filterPath); {
	case err == nil:
		if filter, err = ignore.CompileIgnoreFile(filterPath); err != nil {
			return Result{}, fmt.Errorf("pakfilter: read %s: %w", filterPath, err)
		}
		res.Filtered = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Result{}, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == filepath.ToSlash(filterFile) {
			return nil
		}
		if filter != nil && !filter.MatchesPath(name) {
			res.Skipped++
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		res.Entries = append(res.Entries, Entry{Name: name, Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	slices.SortFunc(res.Entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return res, nil
}

// TotalSize sums the sizes of the entries.
func TotalSize(entries []Entry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Size
	}
	return n
}
