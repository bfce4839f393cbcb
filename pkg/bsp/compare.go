package bsp

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest returns the xxhash64 of a lump body.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// LumpDiff describes one lump slot in two containers.
type LumpDiff struct {
	Type             LumpType
	OffsetA, OffsetB int32
	LenA, LenB       int
	DigestA, DigestB uint64
	// FirstDiff is the first differing byte within the shorter body, or -1
	// when one body is a prefix of the other.
	FirstDiff int
}

// Changed reports whether the bodies differ.
func (d LumpDiff) Changed() bool {
	return d.LenA != d.LenB || d.DigestA != d.DigestB
}

// Moved reports whether the body sits at a different offset.
func (d LumpDiff) Moved() bool {
	return d.OffsetA != d.OffsetB
}

// Compare diffs every lump of a against b, in a's data order.
func Compare(a, b *Container) ([]LumpDiff, error) {
	diffs := make([]LumpDiff, 0, LumpCount)
	for _, la := range a.ByDataOrder() {
		lb := b.lumps[la.typ]
		da, err := la.Data()
		if err != nil {
			return nil, fmt.Errorf("lump %d (%s): %w", la.typ, la.typ, err)
		}
		db, err := lb.Data()
		if err != nil {
			return nil, fmt.Errorf("lump %d (%s): %w", lb.typ, lb.typ, err)
		}
		diffs = append(diffs, LumpDiff{
			Type:      la.typ,
			OffsetA:   la.Offset,
			OffsetB:   lb.Offset,
			LenA:      len(da),
			LenB:      len(db),
			DigestA:   Digest(da),
			DigestB:   Digest(db),
			FirstDiff: firstDiff(da, db),
		})
	}
	return diffs, nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	if bytes.Equal(a[:n], b[:n]) {
		return -1
	}
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
