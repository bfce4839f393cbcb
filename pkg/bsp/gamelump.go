package bsp

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
)

// gameItemHeaderSize is id, flags, version, absolute offset and length.
const gameItemHeaderSize = 16

type gameState uint8

const (
	// gameDetached: the body is authoritative and written verbatim.
	gameDetached gameState = iota
	// gameSynced: the body encodes the items at the lump's current offset.
	gameSynced
	// gameStale: items changed after the body was last encoded.
	gameStale
)

// GameLumpItem is one entry of the game lump sub-directory. Data is owned by
// the item once it is handed to a GameLump.
type GameLumpItem struct {
	ID      int32
	Flags   uint16
	Version uint16
	Data    []byte

	localOffset int32
}

// LocalOffset is the item's position inside the game lump body.
func (it GameLumpItem) LocalOffset() int32 { return it.localOffset }

// GameLump is the structured view of lump 35. Item offsets are stored on disk
// as absolute file positions, so the body has to be re-encoded whenever the
// parent lump moves.
type GameLump struct {
	lump  *Lump
	items []GameLumpItem
	state gameState
}

// Lump returns the lump this view belongs to.
func (g *GameLump) Lump() *Lump { return g.lump }

// Len returns the number of items.
func (g *GameLump) Len() int { return len(g.items) }

// Stale reports whether items were edited since the last offset update.
func (g *GameLump) Stale() bool { return g.state == gameStale }

// Detached reports whether the body is written verbatim: it was replaced or
// cleared and not reparsed, or never held an item table.
func (g *GameLump) Detached() bool { return g.state == gameDetached }

// Items returns the items in body order. The slice is a copy; item data is shared.
func (g *GameLump) Items() []GameLumpItem {
	return slices.Clone(g.items)
}

// Item returns the first item with the given id.
func (g *GameLump) Item(id int32) (GameLumpItem, bool) {
	i := g.index(id)
	if i < 0 {
		return GameLumpItem{}, false
	}
	return g.items[i], true
}

// Add appends an item.
func (g *GameLump) Add(item GameLumpItem) error {
	if err := g.editable(); err != nil {
		return err
	}
	g.items = append(g.items, item)
	g.state = gameStale
	return nil
}

// Replace swaps the body of the first item with the given id.
func (g *GameLump) Replace(id int32, data []byte) error {
	if err := g.editable(); err != nil {
		return err
	}
	i := g.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %#x", ErrItemNotFound, id)
	}
	g.items[i].Data = data
	g.state = gameStale
	return nil
}

// Remove deletes the first item with the given id.
func (g *GameLump) Remove(id int32) error {
	if err := g.editable(); err != nil {
		return err
	}
	i := g.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %#x", ErrItemNotFound, id)
	}
	g.items = slices.Delete(g.items, i, i+1)
	g.state = gameStale
	return nil
}

func (g *GameLump) index(id int32) int {
	return slices.IndexFunc(g.items, func(it GameLumpItem) bool { return it.ID == id })
}

// editable fails with ErrDetached while the view is detached from a body that
// holds more than the cleared placeholder. Editing items then would drop that
// body on the next layout; Reparse or Clear the lump first.
func (g *GameLump) editable() error {
	if g.state == gameDetached && len(g.lump.data) > 1 {
		return ErrDetached
	}
	return nil
}

func (g *GameLump) detach() {
	g.items = nil
	g.state = gameDetached
}

// itemSource reads an item body stored outside the game lump body, addressed
// by absolute file offset.
type itemSource func(abs, length int32) ([]byte, error)

// parse reads the item table from body. parent is the absolute offset the
// body was read from. Items that point outside the body are read through src
// when it is set. An absent or cleared body yields a detached view with no
// items. On error the view is left unchanged.
func (g *GameLump) parse(body []byte, parent int32, src itemSource) error {
	items, structured, err := decodeGameBody(body, parent, src)
	if err != nil {
		return err
	}
	g.adopt(items, structured)
	return nil
}

func (g *GameLump) adopt(items []GameLumpItem, structured bool) {
	if !structured {
		g.detach()
		return
	}
	g.items = items
	g.state = gameSynced
}

// decodeGameBody decodes body without touching any view. structured is false
// for an absent or cleared body, which has no item table.
func decodeGameBody(body []byte, parent int32, src itemSource) (items []GameLumpItem, structured bool, err error) {
	if len(body) <= 1 {
		return nil, false, nil
	}
	if items, err = decodeGameItems(body, parent, src); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func decodeGameItems(body []byte, parent int32, src itemSource) ([]GameLumpItem, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: game lump shorter than its item count", ErrCorruptFile)
	}
	count := getInt32(body)
	table := int64(4) + int64(count)*gameItemHeaderSize
	if count < 0 || table > int64(len(body)) {
		return nil, fmt.Errorf("%w: game lump item count %d", ErrCorruptFile, count)
	}

	items := make([]GameLumpItem, count)
	for i := range items {
		h := body[4+i*gameItemHeaderSize:]
		abs := getInt32(h[8:])
		length := getInt32(h[12:])
		local := int64(abs) - int64(parent)

		it := GameLumpItem{
			ID:          getInt32(h[0:]),
			Flags:       binary.LittleEndian.Uint16(h[4:]),
			Version:     binary.LittleEndian.Uint16(h[6:]),
			localOffset: int32(local),
		}
		switch {
		case length < 0:
			return nil, fmt.Errorf("%w: game lump item %d length %d", ErrCorruptFile, i, length)
		case length == 0:
			// Terminator items may point anywhere.
			it.Data = []byte{}
		case local >= table && local+int64(length) <= int64(len(body)):
			it.Data = slices.Clone(body[local : local+int64(length)])
		case src != nil:
			data, err := src(abs, length)
			if err != nil {
				return nil, fmt.Errorf("game lump item %d at %d+%d: %w", i, abs, length, err)
			}
			it.Data = data
		default:
			return nil, fmt.Errorf("%w: game lump item %d at %d+%d outside body of %d bytes",
				ErrCorruptFile, i, abs, length, len(body))
		}
		items[i] = it
	}

	slices.SortStableFunc(items, func(a, b GameLumpItem) int {
		return cmp.Compare(a.localOffset, b.localOffset)
	})
	return items, nil
}

// gameLayout assigns local offsets and returns the encoded body size. The
// body ends at the end of the last item; only the gaps between items are padded.
func gameLayout(items []GameLumpItem) ([]int32, int) {
	locals := make([]int32, len(items))
	cursor := int64(4) + int64(len(items))*gameItemHeaderSize
	size := cursor
	for i, it := range items {
		locals[i] = int32(cursor)
		size = cursor + int64(len(it.Data))
		cursor = RoundUp(size, alignment)
	}
	return locals, int(size)
}

// encodedLen returns the size the items encode to. ok is false when the body
// is detached and will be written as is.
func (g *GameLump) encodedLen() (n int, ok bool) {
	if g.state == gameDetached {
		return 0, false
	}
	_, n = gameLayout(g.items)
	return n, true
}

// layout re-encodes the items for a body stored at parent.
func (g *GameLump) layout(parent int32) error {
	if g.state == gameDetached {
		return nil
	}
	locals, size := gameLayout(g.items)
	if int64(parent)+int64(size) > maxFileSize {
		return fmt.Errorf("%w: game lump at %d exceeds %d bytes", ErrTooLarge, parent, maxFileSize)
	}

	body := make([]byte, size)
	putInt32(body, int32(len(g.items)))
	for i := range g.items {
		it := &g.items[i]
		it.localOffset = locals[i]

		h := body[4+i*gameItemHeaderSize:]
		putInt32(h[0:], it.ID)
		binary.LittleEndian.PutUint16(h[4:], it.Flags)
		binary.LittleEndian.PutUint16(h[6:], it.Version)
		putInt32(h[8:], parent+it.localOffset)
		putInt32(h[12:], int32(len(it.Data)))
		copy(body[it.localOffset:], it.Data)
	}
	g.lump.data = body
	g.state = gameSynced
	return nil
}

// inferGameParent guesses where a game lump body was stored when it was
// written. Side-files do not record the original offset; bodies produced by
// layout place the first item right after the item table.
func inferGameParent(body []byte) int32 {
	if len(body) < 4 {
		return 0
	}
	count := getInt32(body)
	table := int64(4) + int64(count)*gameItemHeaderSize
	if count <= 0 || table > int64(len(body)) {
		return 0
	}
	var lowest int64 = -1
	for i := range int(count) {
		h := body[4+i*gameItemHeaderSize:]
		if getInt32(h[12:]) <= 0 {
			continue
		}
		if abs := int64(getInt32(h[8:])); lowest < 0 || abs < lowest {
			lowest = abs
		}
	}
	if lowest < table {
		return 0
	}
	return int32(lowest - table)
}
