package bsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareIdentical(t *testing.T) {
	t.Parallel()

	a := mustParse(t, canonicalFile())
	b := mustParse(t, canonicalFile())

	diffs, err := Compare(a, b)
	require.NoError(t, err)
	require.Len(t, diffs, LumpCount)
	for _, d := range diffs {
		require.False(t, d.Changed(), d.Type.String())
		require.False(t, d.Moved(), d.Type.String())
		require.Equal(t, -1, d.FirstDiff)
	}
	// Data order puts the bodies last.
	require.Equal(t, LumpEntities, diffs[LumpCount-1].Type)
}

func TestCompareReportsChanges(t *testing.T) {
	t.Parallel()

	a := mustParse(t, canonicalFile())
	b := mustParse(t, canonicalFile())
	mustLump(t, b, LumpFaces).SetData([]byte("facEs and more"))
	b = mustParse(t, mustBytes(t, b))

	diffs, err := Compare(a, b)
	require.NoError(t, err)

	byType := make(map[LumpType]LumpDiff, len(diffs))
	for _, d := range diffs {
		byType[d.Type] = d
	}

	faces := byType[LumpFaces]
	require.True(t, faces.Changed())
	require.Equal(t, 5, faces.LenA)
	require.Equal(t, 14, faces.LenB)
	require.Equal(t, 3, faces.FirstDiff)
	require.Equal(t, Digest([]byte("faces")), faces.DigestA)

	tex := byType[LumpTexData]
	require.False(t, tex.Changed())
	require.True(t, tex.Moved())
}

func TestCompareStaleGameLump(t *testing.T) {
	t.Parallel()

	a := mustParse(t, canonicalFile())
	require.NoError(t, a.GameLump().Add(GameLumpItem{ID: 1}))
	_, err := Compare(a, New(20))
	require.ErrorIs(t, err, ErrStaleOffsets)
}

func TestFirstDiffPrefix(t *testing.T) {
	t.Parallel()

	require.Equal(t, -1, firstDiff([]byte("abc"), []byte("abcdef")))
	require.Equal(t, 0, firstDiff([]byte("x"), []byte("y")))
	require.Equal(t, -1, firstDiff(nil, nil))
}
