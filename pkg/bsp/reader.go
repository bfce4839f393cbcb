package bsp

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps a VBSP file read-only and parses it.
// If mmap is unavailable, it falls back to ReadAt-based loading. Lump bodies
// are copied out and the mapping is released before Open returns.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("bsp: %s is not a regular file", path)
	}

	size64 := stat.Size()
	if size64 > maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, size64)
	}
	size := int(size64)
	if size < 4 {
		return nil, fmt.Errorf("%w: file too short", ErrNotVBSP)
	}

	// Prefer mmap so only the pages holding lump bodies are touched.
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		c, parseErr := ParseBytes(data)
		if err := unix.Munmap(data); err != nil && parseErr == nil {
			return nil, err
		}
		return c, parseErr
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// OpenReaderAt parses a container from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Container, error) {
	if size < 0 || size > maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	return Parse(io.NewSectionReader(r, 0, size))
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}
