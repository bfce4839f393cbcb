package bsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// LMP is a single lump exported to a side-file.
type LMP struct {
	Type     LumpType
	Version  int32
	Revision int32
	Data     []byte
}

// WriteLMP writes lump t as a side-file: a 20-byte header (header size, lump
// type, lump version, body length, map revision) and the body.
func (c *Container) WriteLMP(w io.Writer, t LumpType) error {
	l, err := c.Lump(t)
	if err != nil {
		return err
	}
	data, err := l.Data()
	if err != nil {
		return fmt.Errorf("lump %d (%s): %w", t, t, err)
	}

	var head [LMPHeaderSize]byte
	putInt32(head[0:], LMPHeaderSize)
	putInt32(head[4:], int32(t))
	putInt32(head[8:], l.Version)
	putInt32(head[12:], int32(len(data)))
	putInt32(head[16:], c.Revision)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteLMPFile writes lump t to path as a side-file.
func (c *Container) WriteLMPFile(path string, t LumpType) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(f)
	if err := c.WriteLMP(bw, t); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadLMP reads a side-file written by WriteLMP.
func ReadLMP(r io.Reader) (*LMP, error) {
	var head [LMPHeaderSize]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file too short", ErrNotLMP)
		}
		return nil, err
	}
	if n := getInt32(head[0:]); n != LMPHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrNotLMP, n)
	}
	t := LumpType(getInt32(head[4:]))
	if !t.Valid() {
		return nil, fmt.Errorf("%w: lump type %d", ErrNotLMP, int(t))
	}
	length := getInt32(head[12:])
	if length < 0 {
		return nil, fmt.Errorf("%w: lump length %d", ErrCorruptFile, length)
	}

	lmp := &LMP{
		Type:     t,
		Version:  getInt32(head[8:]),
		Revision: getInt32(head[16:]),
		Data:     make([]byte, length),
	}
	if _, err := io.ReadFull(r, lmp.Data); err != nil {
		return nil, fmt.Errorf("%w: lump body: %v", ErrCorruptFile, err)
	}
	return lmp, nil
}

// ReadLMPFile reads a side-file from path.
func ReadLMPFile(path string) (*LMP, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadLMP(bufio.NewReader(f))
}

// ImportLMP replaces the lump named by lmp with its body and version. A game
// lump is decoded against the position it was exported from, inferred from
// its first item. A body that does not decode leaves the lump untouched.
func (c *Container) ImportLMP(lmp *LMP) error {
	l, err := c.Lump(lmp.Type)
	if err != nil {
		return err
	}
	if l.kind == KindPakfile && l.pak.IsOpen() {
		return ErrArchiveOpen
	}

	var (
		items      []GameLumpItem
		structured bool
	)
	if l.kind == KindGame {
		items, structured, err = decodeGameBody(lmp.Data, inferGameParent(lmp.Data), nil)
		if err != nil {
			return fmt.Errorf("lump %d (%s): %w", lmp.Type, lmp.Type, err)
		}
	}

	l.SetData(lmp.Data)
	l.Version = lmp.Version
	if l.kind == KindGame {
		l.game.adopt(items, structured)
	}
	return nil
}
