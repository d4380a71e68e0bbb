package fixedpoint

import "testing"

func TestShiftIdentityAtZero(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 12345, -98765} {
		if got := Shift(v, 0); got != v {
			t.Errorf("Shift(%d, 0) = %d, want %d", v, got, v)
		}
	}
}

func TestShiftLeft(t *testing.T) {
	tests := []struct {
		v, s int
		want int64
	}{
		{1, 3, 8},
		{-1, 3, -8},
		{5, 2, 20},
		{-5, 2, -20},
	}
	for _, tt := range tests {
		if got := Shift(int64(tt.v), tt.s); got != tt.want {
			t.Errorf("Shift(%d, %d) = %d, want %d", tt.v, tt.s, got, tt.want)
		}
	}
}

func TestShiftRightIsArithmetic(t *testing.T) {
	tests := []struct {
		v, s int
		want int64
	}{
		{8, -3, 1},
		{-8, -3, -1},
		{-9, -3, -2}, // arithmetic shift floors toward -inf
		{7, -1, 3},
	}
	for _, tt := range tests {
		if got := Shift(int64(tt.v), tt.s); got != tt.want {
			t.Errorf("Shift(%d, %d) = %d, want %d", tt.v, tt.s, got, tt.want)
		}
	}
}

func TestShift32MatchesShift(t *testing.T) {
	for v := int32(-1000); v <= 1000; v += 37 {
		for s := -8; s <= 8; s++ {
			got := Shift32(v, s)
			want := Shift(int64(v), s)
			if int64(got) != want {
				t.Errorf("Shift32(%d, %d) = %d, want %d", v, s, got, want)
			}
		}
	}
}
