package bsp

import "math"

// alignment is the boundary every lump body and game lump item starts on.
const alignment = 4

// maxFileSize is the largest position a 32-bit directory offset can address.
const maxFileSize = math.MaxInt32

// RoundUp returns the smallest multiple of multiple that is >= n.
// multiple must be positive.
func RoundUp(n, multiple int64) int64 {
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + multiple - rem
}

func roundUp32(n int32) int32 {
	return int32(RoundUp(int64(n), alignment))
}
