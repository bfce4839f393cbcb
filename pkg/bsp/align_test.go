package bsp

import "testing"

func TestRoundUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, multiple, want int64
	}{
		{0, 4, 0},
		{1, 4, 4},
		{3, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{1036, 4, 1036},
		{1037, 4, 1040},
		{7, 1, 7},
		{17, 16, 32},
	}
	for _, tt := range tests {
		if got := RoundUp(tt.n, tt.multiple); got != tt.want {
			t.Fatalf("RoundUp(%d, %d) = %d, want %d", tt.n, tt.multiple, got, tt.want)
		}
	}
}

func TestRoundUp32(t *testing.T) {
	t.Parallel()

	for n := int32(0); n < 64; n++ {
		got := roundUp32(n)
		if got%4 != 0 || got < n || got-n >= 4 {
			t.Fatalf("roundUp32(%d) = %d", n, got)
		}
	}
}
