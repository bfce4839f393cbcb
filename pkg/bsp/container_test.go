package bsp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	sprpID int32 = 0x73707270
	dprpID int32 = 0x64707270
)

// canonicalFile is already laid out the way Write lays files out, with body
// order differing from slot order.
func canonicalFile() []byte {
	game := rawGameLump(1044,
		GameLumpItem{ID: sprpID, Version: 10, Data: []byte("static")},
		GameLumpItem{ID: dprpID, Flags: 1, Version: 4, Data: []byte("dtl")},
	)
	return rawContainer(20, 7,
		rawLump{typ: LumpFaces, offset: 1036, data: []byte("faces"), version: 1},
		rawLump{typ: LumpGame, offset: 1044, data: game},
		rawLump{typ: LumpTexData, offset: 1092, data: []byte("texd"), ident: 9},
		rawLump{typ: LumpEntities, offset: 1096, data: []byte{0}},
	)
}

func TestRoundTripIdentity(t *testing.T) {
	t.Parallel()

	in := canonicalFile()
	require.Len(t, in, 1100)

	c := mustParse(t, in)
	require.Equal(t, int32(20), c.Version)
	require.Equal(t, int32(7), c.Revision)

	out := mustBytes(t, c)
	require.Equal(t, in, out)
}

func TestParseReadsDirectory(t *testing.T) {
	t.Parallel()

	c := mustParse(t, canonicalFile())

	faces := mustLump(t, c, LumpFaces)
	require.Equal(t, int32(1036), faces.Offset)
	require.Equal(t, int32(1), faces.Version)
	require.Equal(t, []byte("faces"), mustData(t, faces))
	require.Equal(t, KindPlain, faces.Kind())

	tex := mustLump(t, c, LumpTexData)
	require.Equal(t, int32(9), tex.Ident)

	require.Equal(t, KindGame, mustLump(t, c, LumpGame).Kind())
	require.Equal(t, KindPakfile, mustLump(t, c, LumpPakfile).Kind())
	require.NotNil(t, c.GameLump())
	require.NotNil(t, c.Pakfile())
	require.Nil(t, faces.Game())
	require.Nil(t, faces.Pakfile())

	// Absent lumps all sit at offset 0 and sort ahead of every body.
	order := c.ByDataOrder()
	tail := order[len(order)-4:]
	require.Equal(t, LumpFaces, tail[0].Type())
	require.Equal(t, LumpGame, tail[1].Type())
	require.Equal(t, LumpTexData, tail[2].Type())
	require.Equal(t, LumpEntities, tail[3].Type())
}

func TestParseRejectsMissingMagic(t *testing.T) {
	t.Parallel()

	data := canonicalFile()
	copy(data, "PSBV")
	_, err := ParseBytes(data)
	require.ErrorIs(t, err, ErrNotVBSP)

	_, err = ParseBytes(make([]byte, 1036))
	require.ErrorIs(t, err, ErrNotVBSP)

	_, err = ParseBytes([]byte("VB"))
	require.ErrorIs(t, err, ErrNotVBSP)
}

func TestParseTruncatedAfterMagic(t *testing.T) {
	t.Parallel()

	_, err := ParseBytes([]byte("VBSP\x14\x00"))
	require.ErrorIs(t, err, ErrCorruptFile)
	require.NotErrorIs(t, err, ErrNotVBSP)

	_, err = ParseBytes(canonicalFile()[:600])
	require.ErrorIs(t, err, ErrCorruptFile)
}

func TestParseRejectsOutOfRangeBody(t *testing.T) {
	t.Parallel()

	data := rawContainer(20, 0, rawLump{typ: LumpPlanes, offset: 1036, data: make([]byte, 8)})
	// Claim a length past the end of the file.
	copy(data[8+int(LumpPlanes)*lumpEntrySize+4:], []byte{0xff, 0x00, 0x00, 0x00})
	_, err := ParseBytes(data)
	require.ErrorIs(t, err, ErrCorruptFile)

	_, err = ParseBytes(data[:500])
	require.ErrorIs(t, err, ErrCorruptFile)
}

func TestWriteAlignsEveryLump(t *testing.T) {
	t.Parallel()

	c := New(20)
	for i, n := range []int{1, 2, 3, 5, 7, 4} {
		l := mustLump(t, c, LumpType(i*3))
		l.SetData(bytes.Repeat([]byte{byte(i + 1)}, n))
	}

	out := mustBytes(t, c)
	require.Zero(t, len(out)%4)

	back := mustParse(t, out)
	for _, l := range back.Lumps() {
		if l.IsAbsent() {
			require.Zero(t, l.Offset, "lump %s", l.Type())
			continue
		}
		require.Zero(t, l.Offset%4, "lump %s", l.Type())
		require.GreaterOrEqual(t, l.Offset, int32(headerSize), "lump %s", l.Type())
	}
	require.Equal(t, []byte{3, 3, 3}, mustData(t, mustLump(t, back, LumpType(6))))
}

func TestWriteKeepsDataOrder(t *testing.T) {
	t.Parallel()

	in := rawContainer(20, 0,
		rawLump{typ: LumpLeafs, offset: 1036, data: []byte("leaf")},
		rawLump{typ: LumpVertexes, offset: 1040, data: []byte("vert")},
		rawLump{typ: LumpPlanes, offset: 1044, data: []byte("plan")},
	)
	c := mustParse(t, in)
	mustLump(t, c, LumpLeafs).SetData(bytes.Repeat([]byte("L"), 104))

	out := mustBytes(t, c)
	require.Equal(t, int32(1036), dirOffset(t, out, LumpLeafs))
	require.Equal(t, int32(1140), dirOffset(t, out, LumpVertexes))
	require.Equal(t, int32(1144), dirOffset(t, out, LumpPlanes))
	require.Len(t, out, 1148)

	back := mustParse(t, out)
	require.Equal(t, []byte("vert"), mustData(t, mustLump(t, back, LumpVertexes)))
	require.Equal(t, []byte("plan"), mustData(t, mustLump(t, back, LumpPlanes)))
}

func TestAbsentLumpAnchoredAtZero(t *testing.T) {
	t.Parallel()

	in := rawContainer(20, 0,
		rawLump{typ: LumpAreas, offset: 500},
		rawLump{typ: LumpPortals, offset: 1036, data: []byte("port")},
	)
	c := mustParse(t, in)
	require.True(t, mustLump(t, c, LumpAreas).IsAbsent())

	out := mustBytes(t, c)
	require.Zero(t, dirOffset(t, out, LumpAreas))
	require.Zero(t, dirLength(t, out, LumpAreas))
	require.Equal(t, int32(1036), dirOffset(t, out, LumpPortals))
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()

	c := mustParse(t, canonicalFile())
	tex := mustLump(t, c, LumpTexData)

	tex.Clear()
	first := mustBytes(t, c)
	tex.Clear()
	second := mustBytes(t, c)

	require.Equal(t, first, second)
	require.Equal(t, 1, tex.Len())
	require.True(t, tex.IsEmpty())
	require.False(t, tex.IsAbsent())
	require.Equal(t, []byte{0}, mustData(t, tex))
}

func TestClearEntitiesShiftsFollowingLumps(t *testing.T) {
	t.Parallel()

	in := rawContainer(20, 3,
		rawLump{typ: LumpEntities, offset: 1036, data: bytes.Repeat([]byte("e"), 40)},
		rawLump{typ: LumpPlanes, offset: 1076, data: []byte("planes!!")},
	)
	c := mustParse(t, in)
	mustLump(t, c, LumpEntities).Clear()

	out := mustBytes(t, c)
	require.Equal(t, int32(1036), dirOffset(t, out, LumpEntities))
	require.Equal(t, int32(1), dirLength(t, out, LumpEntities))
	require.Equal(t, int32(1040), dirOffset(t, out, LumpPlanes))
	require.Equal(t, int32(8), dirLength(t, out, LumpPlanes))
	require.Len(t, out, 1048)
	require.Equal(t, []byte("planes!!"), out[1040:1048])
}

func TestNewContainerWritesHeaderOnly(t *testing.T) {
	t.Parallel()

	c := New(21)
	c.Revision = 4
	out := mustBytes(t, c)
	require.Len(t, out, headerSize)

	back := mustParse(t, out)
	require.Equal(t, int32(21), back.Version)
	require.Equal(t, int32(4), back.Revision)
	for _, l := range back.Lumps() {
		require.True(t, l.IsAbsent())
	}
}

func TestLumpIndexOutOfRange(t *testing.T) {
	t.Parallel()

	c := New(20)
	_, err := c.Lump(LumpCount)
	require.ErrorIs(t, err, ErrLumpIndex)
	_, err = c.Lump(-1)
	require.ErrorIs(t, err, ErrLumpIndex)

	_, err = ParseLumpType(64)
	require.ErrorIs(t, err, ErrLumpIndex)
	typ, err := ParseLumpType(40)
	require.NoError(t, err)
	require.Equal(t, LumpPakfile, typ)
	require.Equal(t, "PAKFILE", typ.String())
	require.Equal(t, "LumpType(99)", LumpType(99).String())
}

func TestLayoutWithoutWriting(t *testing.T) {
	t.Parallel()

	c := mustParse(t, canonicalFile())
	mustLump(t, c, LumpFaces).SetData(make([]byte, 9))
	require.NoError(t, c.Layout())

	require.Equal(t, int32(1036), mustLump(t, c, LumpFaces).Offset)
	require.Equal(t, int32(1048), mustLump(t, c, LumpGame).Offset)
}

func TestLayoutFailureChangesNothing(t *testing.T) {
	t.Parallel()

	game := rawGameLump(1044,
		GameLumpItem{ID: sprpID, Version: 10, Data: []byte("static")},
	)
	c := mustParse(t, rawContainer(20, 0,
		rawLump{typ: LumpFaces, offset: 1036, data: []byte("faces")},
		rawLump{typ: LumpGame, offset: 1044, data: game},
		rawLump{typ: LumpPakfile, offset: 1072, data: zipBody(t, zipEntry{"a.txt", "a"})},
	))
	faces := mustLump(t, c, LumpFaces)
	faces.SetData([]byte("a much longer faces body"))
	_, err := c.Pakfile().OpenArchive(ModeRead)
	require.NoError(t, err)

	require.ErrorIs(t, c.Layout(), ErrArchiveOpen)
	require.Equal(t, int32(1036), faces.Offset)
	gameLump := mustLump(t, c, LumpGame)
	require.Equal(t, int32(1044), gameLump.Offset)
	require.False(t, c.GameLump().Stale())
	require.Equal(t, game, mustData(t, gameLump))

	require.NoError(t, c.Pakfile().CloseArchive())
	require.NoError(t, c.Layout())
	require.Equal(t, int32(1060), gameLump.Offset)
	require.Equal(t, int32(1060+20), readEntry(t, mustData(t, gameLump), 4+8))
}

func TestWriteFileAndOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.bsp")
	require.NoError(t, os.WriteFile(path, canonicalFile(), 0o644))

	c, err := Open(path)
	require.NoError(t, err)
	mustLump(t, c, LumpFaces).Clear()
	require.NoError(t, c.WriteFile(path))

	back, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, mustData(t, mustLump(t, back, LumpFaces)))
	require.Equal(t, []byte("texd"), mustData(t, mustLump(t, back, LumpTexData)))

	items := back.GameLump().Items()
	require.Len(t, items, 2)
	require.Equal(t, []byte("static"), items[0].Data)
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	in := canonicalFile()
	c, err := OpenReaderAt(bytes.NewReader(in), int64(len(in)))
	require.NoError(t, err)
	require.Equal(t, in, mustBytes(t, c))
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.bsp"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeekBufferZeroFillsGaps(t *testing.T) {
	t.Parallel()

	var b seekBuffer
	_, err := b.Seek(6, 0)
	require.NoError(t, err)
	_, err = b.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = b.Seek(1, 0)
	require.NoError(t, err)
	_, err = b.Write([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 'x', 0, 0, 0, 0, 'a', 'b'}, b.data)

	_, err = b.Seek(-1, 0)
	require.Error(t, err)
}
