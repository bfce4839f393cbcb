package bsp

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// Container is a parsed VBSP file: a version, 64 lump slots and a map
// revision. Every slot is always populated; unused slots hold absent lumps.
type Container struct {
	Version  int32
	Revision int32

	lumps [LumpCount]*Lump
}

// New returns a container with every lump absent.
func New(version int32) *Container {
	c := &Container{Version: version}
	for i := range c.lumps {
		l := newLump(LumpType(i), dirEntry{}, nil)
		l.dataOrder = i
		c.lumps[i] = l
	}
	return c
}

// ParseBytes parses a container held in memory. Lump bodies are copied out of data.
func ParseBytes(data []byte) (*Container, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a whole container. Nothing is returned on failure.
func Parse(r io.ReadSeeker) (*Container, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var word [4]byte
	if _, err := io.ReadFull(r, word[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file too short", ErrNotVBSP)
		}
		return nil, err
	}
	if magic := getInt32(word[:]); magic != MagicVBSP {
		return nil, fmt.Errorf("%w: magic %#08x", ErrNotVBSP, uint32(magic))
	}
	if _, err := io.ReadFull(r, word[:]); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrCorruptFile, err)
	}

	c := &Container{Version: getInt32(word[:])}
	var raw [lumpEntrySize]byte
	for i := range c.lumps {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("%w: lump directory: %v", ErrCorruptFile, err)
		}
		e, _ := decodeEntry(raw[:])
		data, err := readBody(r, e, size)
		if err != nil {
			return nil, fmt.Errorf("lump %d (%s): %w", i, LumpType(i), err)
		}
		c.lumps[i] = newLump(LumpType(i), e, data)
	}

	var rev [4]byte
	if _, err := io.ReadFull(r, rev[:]); err != nil {
		return nil, fmt.Errorf("%w: map revision: %v", ErrCorruptFile, err)
	}
	c.Revision = getInt32(rev[:])

	for i, l := range c.sortedByOffset() {
		l.dataOrder = i
	}

	// Items may live anywhere in the file. A table that still cannot be
	// resolved leaves the lump detached and its body is written back verbatim.
	game := c.lumps[LumpGame]
	if err := game.game.parse(game.data, game.Offset, fileItems(r, size)); err != nil {
		if !errors.Is(err, ErrCorruptFile) {
			return nil, fmt.Errorf("lump %d (%s): %w", LumpGame, LumpGame, err)
		}
		game.game.detach()
	}
	return c, nil
}

// fileItems reads game lump items stored outside the game lump body.
func fileItems(r io.ReadSeeker, size int64) itemSource {
	return func(abs, length int32) ([]byte, error) {
		return readBody(r, dirEntry{Offset: abs, Length: length}, size)
	}
}

// readBody reads a lump body and restores the read position.
func readBody(r io.ReadSeeker, e dirEntry, size int64) ([]byte, error) {
	if e.Length == 0 {
		return nil, nil
	}
	end := int64(e.Offset) + int64(e.Length)
	if e.Offset < 0 || e.Length < 0 || end > size {
		return nil, fmt.Errorf("%w: body %d+%d outside file of %d bytes", ErrCorruptFile, e.Offset, e.Length, size)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(e.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, e.Length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrCorruptFile, err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}

// Lump returns the lump in slot t.
func (c *Container) Lump(t LumpType) (*Lump, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d (want 0-%d)", ErrLumpIndex, int(t), LumpCount-1)
	}
	return c.lumps[t], nil
}

// Lumps returns all lumps in slot order.
func (c *Container) Lumps() []*Lump {
	return slices.Clone(c.lumps[:])
}

// ByDataOrder returns all lumps in the order their bodies are laid out.
func (c *Container) ByDataOrder() []*Lump {
	order := c.Lumps()
	slices.SortStableFunc(order, func(a, b *Lump) int {
		return cmp.Compare(a.dataOrder, b.dataOrder)
	})
	return order
}

// GameLump returns the structured view of lump 35.
func (c *Container) GameLump() *GameLump { return c.lumps[LumpGame].game }

// Pakfile returns the archive view of lump 40.
func (c *Container) Pakfile() *Pakfile { return c.lumps[LumpPakfile].pak }

func (c *Container) sortedByOffset() []*Lump {
	order := c.Lumps()
	slices.SortStableFunc(order, func(a, b *Lump) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return order
}

type placement struct {
	lump   *Lump
	offset int32
}

// plan assigns offsets in data order without touching any lump. Encoded
// lengths never depend on the offset, so the whole layout is known up front.
func (c *Container) plan() ([]placement, error) {
	plan := make([]placement, 0, LumpCount)
	cursor := int64(headerSize)
	for _, l := range c.ByDataOrder() {
		n, err := l.encodedLen()
		if err != nil {
			return nil, fmt.Errorf("lump %d (%s): %w", l.typ, l.typ, err)
		}
		var off int64
		if n > 0 {
			off = cursor
		}
		cursor = RoundUp(cursor+int64(n), alignment)
		if cursor > maxFileSize {
			return nil, fmt.Errorf("%w: lump %d (%s) ends at %d", ErrTooLarge, l.typ, l.typ, cursor)
		}
		plan = append(plan, placement{lump: l, offset: int32(off)})
	}
	return plan, nil
}

// apply commits a plan. plan has already checked every lump for the errors
// UpdateOffsets can return.
func apply(plan []placement) error {
	for _, p := range plan {
		if err := p.lump.UpdateOffsets(p.offset); err != nil {
			return fmt.Errorf("lump %d (%s): %w", p.lump.typ, p.lump.typ, err)
		}
		p.lump.Offset = p.offset
	}
	return nil
}

// Layout assigns every lump its final offset and re-encodes the game lump
// against it. Write calls it; callers only need it to inspect offsets
// without writing. On error no lump is changed.
func (c *Container) Layout() error {
	plan, err := c.plan()
	if err != nil {
		return err
	}
	return apply(plan)
}

// Write lays the container out and writes it to w, which must start empty or
// be truncated by the caller. Bodies keep their data order; the file is padded
// to a 4-byte boundary.
func (c *Container) Write(w io.WriteSeeker) error {
	if err := c.Layout(); err != nil {
		return err
	}

	head := make([]byte, headerSize)
	putInt32(head[0:], MagicVBSP)
	putInt32(head[4:], c.Version)
	for i, l := range c.lumps {
		encodeEntry(head[8+i*lumpEntrySize:], l.entry())
	}
	putInt32(head[headerSize-4:], c.Revision)

	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, l := range c.sortedByOffset() {
		if l.IsAbsent() {
			continue
		}
		data, err := l.Data()
		if err != nil {
			return fmt.Errorf("lump %d (%s): %w", l.typ, l.typ, err)
		}
		if _, err := w.Seek(int64(l.Offset), io.SeekStart); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write lump %d (%s): %w", l.typ, l.typ, err)
		}
	}

	end, err := w.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if pad := RoundUp(end, alignment) - end; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}

// Bytes lays the container out and returns the encoded file.
func (c *Container) Bytes() ([]byte, error) {
	var buf seekBuffer
	if err := c.Write(&buf); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// WriteFile writes the container to path, replacing any existing file.
func (c *Container) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := c.Write(f); err != nil {
		return err
	}
	return f.Sync()
}

// seekBuffer is an in-memory io.WriteSeeker. Writes past the end zero-fill the gap.
type seekBuffer struct {
	data []byte
	pos  int64
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		b.data = slices.Grow(b.data, int(end)-len(b.data))[:end]
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.pos + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("bsp: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("bsp: negative seek position %d", pos)
	}
	b.pos = pos
	return pos, nil
}
