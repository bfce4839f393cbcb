package bsp

import "errors"

// Format errors.
var (
	ErrNotVBSP     = errors.New("bsp: file is not VBSP")
	ErrNotLMP      = errors.New("bsp: file is not a lump file")
	ErrCorruptFile = errors.New("bsp: corrupt file")
	ErrTooLarge    = errors.New("bsp: container exceeds the 32-bit offset range")
)

// State errors. These indicate a caller broke a usage contract.
var (
	ErrStaleOffsets    = errors.New("bsp: game lump items changed since last offset update")
	ErrArchiveOpen     = errors.New("bsp: pakfile archive is already open")
	ErrArchiveNotOpen  = errors.New("bsp: pakfile archive is not open")
	ErrStreamOpen      = errors.New("bsp: archive member stream is still open")
	ErrReadOnlyArchive = errors.New("bsp: archive opened read-only")
	ErrDetached        = errors.New("bsp: game lump body was replaced; reparse before editing items")
)

// Input errors. Callers are expected to handle these and report them cleanly.
var (
	ErrLumpIndex      = errors.New("bsp: lump index out of range")
	ErrLumpEmpty      = errors.New("bsp: lump is already empty")
	ErrMemberExists   = errors.New("bsp: archive member already exists")
	ErrMemberNotFound = errors.New("bsp: archive member not found")
	ErrItemNotFound   = errors.New("bsp: game lump item not found")
)
