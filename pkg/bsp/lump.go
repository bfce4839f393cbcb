package bsp

import "fmt"

// Kind selects how a lump body is interpreted. It is fixed when the lump is
// created and follows from the lump type.
type Kind uint8

const (
	KindPlain Kind = iota
	KindGame
	KindPakfile
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindGame:
		return "game"
	case KindPakfile:
		return "pakfile"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func kindOf(t LumpType) Kind {
	switch t {
	case LumpGame:
		return KindGame
	case LumpPakfile:
		return KindPakfile
	default:
		return KindPlain
	}
}

// Lump is one directory slot and the body it points at.
//
// Offset is only meaningful right after a parse or a layout pass; any edit to
// any lump may move it. Version and Ident are carried through unchanged.
type Lump struct {
	Offset  int32
	Version int32
	Ident   int32

	typ       LumpType
	kind      Kind
	data      []byte
	dataOrder int

	// Exactly one of these is set for KindGame and KindPakfile lumps.
	game *GameLump
	pak  *Pakfile
}

// newLump is the only constructor. It dispatches the body kind from the type code.
func newLump(t LumpType, e dirEntry, data []byte) *Lump {
	l := &Lump{
		Offset:  e.Offset,
		Version: e.Version,
		Ident:   e.Ident,
		typ:     t,
		kind:    kindOf(t),
		data:    data,
	}
	switch l.kind {
	case KindGame:
		l.game = &GameLump{lump: l}
	case KindPakfile:
		l.pak = &Pakfile{lump: l}
	}
	return l
}

func (l *Lump) Type() LumpType { return l.typ }
func (l *Lump) Kind() Kind     { return l.kind }

// DataOrder is the rank of this lump's body by ascending offset in the file it
// was parsed from. Layout passes place bodies in this order.
func (l *Lump) DataOrder() int { return l.dataOrder }

// Game returns the structured view of a game lump, or nil for other kinds.
func (l *Lump) Game() *GameLump { return l.game }

// Pakfile returns the archive view of a pakfile lump, or nil for other kinds.
func (l *Lump) Pakfile() *Pakfile { return l.pak }

// Len returns the length the body will have when written.
func (l *Lump) Len() int {
	n, _ := l.encodedLen()
	return n
}

// IsAbsent reports whether the lump has no body at all. Absent lumps are
// anchored at offset 0.
func (l *Lump) IsAbsent() bool { return l.Len() == 0 }

// IsEmpty reports whether the lump is absent or holds only the one-byte
// placeholder written by Clear.
func (l *Lump) IsEmpty() bool { return l.Len() <= 1 }

// Data returns the body bytes. The slice is owned by the lump and must not be
// modified.
//
// It fails with ErrStaleOffsets when game lump items were edited after the last
// offset update, and with ErrArchiveOpen while a pakfile archive is open.
func (l *Lump) Data() ([]byte, error) {
	switch l.kind {
	case KindGame:
		if l.game.state == gameStale {
			return nil, ErrStaleOffsets
		}
	case KindPakfile:
		if l.pak.archive != nil {
			return nil, ErrArchiveOpen
		}
	}
	return l.data, nil
}

// SetData replaces the body. Structured views are detached until Reparse is
// called: a game lump writes the new bytes verbatim until then and refuses
// item edits with ErrDetached.
func (l *Lump) SetData(data []byte) {
	l.data = data
	if l.kind == KindGame {
		l.game.detach()
	}
}

// Clear replaces the body with a single zero byte. This is the canonical
// "present but empty" lump; a zero-length body is reserved for lumps that
// were never written.
func (l *Lump) Clear() {
	l.SetData([]byte{0})
}

// Reparse derives the structured view of the body again. Game lump item
// offsets are resolved against the current Offset. Plain and pakfile lumps have
// nothing to derive.
func (l *Lump) Reparse() error {
	if l.kind != KindGame {
		return nil
	}
	return l.game.parse(l.data, l.Offset, nil)
}

// UpdateOffsets prepares the body to be stored at newOffset. Game lumps
// re-encode their items with absolute offsets relative to newOffset. It does
// not change Offset itself.
func (l *Lump) UpdateOffsets(newOffset int32) error {
	switch l.kind {
	case KindGame:
		return l.game.layout(newOffset)
	case KindPakfile:
		if l.pak.archive != nil {
			return ErrArchiveOpen
		}
	}
	return nil
}

// Refresh re-encodes the body for the lump's current Offset.
func (l *Lump) Refresh() error {
	return l.UpdateOffsets(l.Offset)
}

func (l *Lump) encodedLen() (int, error) {
	switch l.kind {
	case KindGame:
		if n, ok := l.game.encodedLen(); ok {
			return n, nil
		}
	case KindPakfile:
		if l.pak.archive != nil {
			return len(l.data), ErrArchiveOpen
		}
	}
	return len(l.data), nil
}

func (l *Lump) entry() dirEntry {
	return dirEntry{
		Offset:  l.Offset,
		Length:  int32(l.Len()),
		Version: l.Version,
		Ident:   l.Ident,
	}
}
