package bsp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

type rawLump struct {
	typ     LumpType
	offset  int32
	data    []byte
	version int32
	ident   int32
}

// rawContainer encodes a VBSP file by hand, independent of Container.Write.
// The file is zero-padded to a 4-byte boundary.
func rawContainer(version, revision int32, lumps ...rawLump) []byte {
	end := int64(headerSize)
	for _, l := range lumps {
		if e := int64(l.offset) + int64(len(l.data)); len(l.data) > 0 && e > end {
			end = e
		}
	}
	out := make([]byte, RoundUp(end, 4))
	le := binary.LittleEndian
	le.PutUint32(out[0:], uint32(MagicVBSP))
	le.PutUint32(out[4:], uint32(version))
	for _, l := range lumps {
		e := out[8+int(l.typ)*lumpEntrySize:]
		le.PutUint32(e[0:], uint32(l.offset))
		le.PutUint32(e[4:], uint32(len(l.data)))
		le.PutUint32(e[8:], uint32(l.version))
		le.PutUint32(e[12:], uint32(l.ident))
		if len(l.data) > 0 {
			copy(out[l.offset:], l.data)
		}
	}
	le.PutUint32(out[headerSize-4:], uint32(revision))
	return out
}

// rawGameLump encodes a game lump body stored at parent, placing items the
// way compilers do: right after the item table, each on a 4-byte boundary.
func rawGameLump(parent int32, items ...GameLumpItem) []byte {
	le := binary.LittleEndian
	cursor := 4 + 16*len(items)
	size := cursor
	locals := make([]int, len(items))
	for i, it := range items {
		locals[i] = cursor
		size = cursor + len(it.Data)
		cursor = int(RoundUp(int64(size), 4))
	}
	out := make([]byte, size)
	le.PutUint32(out, uint32(len(items)))
	for i, it := range items {
		h := out[4+16*i:]
		le.PutUint32(h[0:], uint32(it.ID))
		le.PutUint16(h[4:], it.Flags)
		le.PutUint16(h[6:], it.Version)
		le.PutUint32(h[8:], uint32(int(parent)+locals[i]))
		le.PutUint32(h[12:], uint32(len(it.Data)))
		copy(out[locals[i]:], it.Data)
	}
	return out
}

type zipEntry struct {
	name string
	data string
}

// zipBody builds a deflate-compressed archive.
func zipBody(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readEntry(t *testing.T, data []byte, off int) int32 {
	t.Helper()
	require.GreaterOrEqual(t, len(data), off+4)
	return int32(binary.LittleEndian.Uint32(data[off:]))
}

func dirOffset(t *testing.T, file []byte, typ LumpType) int32 {
	t.Helper()
	return readEntry(t, file, 8+int(typ)*lumpEntrySize)
}

func dirLength(t *testing.T, file []byte, typ LumpType) int32 {
	t.Helper()
	return readEntry(t, file, 8+int(typ)*lumpEntrySize+4)
}

func mustParse(t *testing.T, data []byte) *Container {
	t.Helper()
	c, err := ParseBytes(data)
	require.NoError(t, err)
	return c
}

func mustLump(t *testing.T, c *Container, typ LumpType) *Lump {
	t.Helper()
	l, err := c.Lump(typ)
	require.NoError(t, err)
	return l
}

func mustData(t *testing.T, l *Lump) []byte {
	t.Helper()
	data, err := l.Data()
	require.NoError(t, err)
	return data
}

func mustBytes(t *testing.T, c *Container) []byte {
	t.Helper()
	data, err := c.Bytes()
	require.NoError(t, err)
	return data
}
