package cpu

import (
	"testing"

	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/gigaerr"
)

// TestUpsampleRank3AlternatingRows mirrors the reference upsample fixture: a
// (2,5,5) tensor with alternating +/- rows, expanded x2 in H and W.
func TestUpsampleRank3AlternatingRows(t *testing.T) {
	arena := newTestArena(t, "1M")
	in := arena.alloc(dtype.F32, 0, []int{2, 5, 5})
	out := arena.alloc(dtype.F32, 0, []int{2, 10, 10})

	row := []float32{1, 2, 3, 4, 5}
	negRow := []float32{-1, -2, -3, -4, -5}
	var data []float32
	for c := 0; c < 2; c++ {
		for r := 0; r < 5; r++ {
			if r%2 == 0 {
				data = append(data, row...)
			} else {
				data = append(data, negRow...)
			}
		}
	}
	fillF32(t, arena, in, data...)

	if err := Upsample(arena.zones, in, out, 2); err != nil {
		t.Fatalf("Upsample: %v", err)
	}
	got := readF32(t, arena, out)

	wantRow := []float32{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}
	wantNegRow := []float32{-1, -1, -2, -2, -3, -3, -4, -4, -5, -5}
	idx := 0
	for c := 0; c < 2; c++ {
		for r := 0; r < 10; r++ {
			want := wantRow
			if (r/2)%2 == 1 {
				want = wantNegRow
			}
			for col := 0; col < 10; col++ {
				if got[idx] != want[col] {
					t.Errorf("out[c=%d,r=%d,col=%d] = %v, want %v", c, r, col, got[idx], want[col])
				}
				idx++
			}
		}
	}
}

// TestUpsampleThenAveragePoolRecoversInput checks the algebraic property:
// upsampling by 2 then 2x2-average-pooling recovers the original values.
func TestUpsampleThenAveragePoolRecoversInput(t *testing.T) {
	arena := newTestArena(t, "1M")
	in := arena.alloc(dtype.F32, 0, []int{1, 3, 3})
	out := arena.alloc(dtype.F32, 0, []int{1, 6, 6})

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	fillF32(t, arena, in, data...)

	if err := Upsample(arena.zones, in, out, 2); err != nil {
		t.Fatalf("Upsample: %v", err)
	}
	got := readF32(t, arena, out)

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float32
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					sum += got[(2*r+dy)*6+(2*c+dx)]
				}
			}
			avg := sum / 4
			want := data[r*3+c]
			if avg != want {
				t.Errorf("pooled(%d,%d) = %v, want %v", r, c, avg, want)
			}
		}
	}
}

func TestUpsampleSingleElementProducesTwoByTwoBlock(t *testing.T) {
	arena := newTestArena(t, "1M")
	in := arena.alloc(dtype.F32, 0, []int{1, 1, 1})
	out := arena.alloc(dtype.F32, 0, []int{1, 2, 2})
	fillF32(t, arena, in, 7)

	if err := Upsample(arena.zones, in, out, 2); err != nil {
		t.Fatalf("Upsample: %v", err)
	}
	got := readF32(t, arena, out)
	for i, v := range got {
		if v != 7 {
			t.Errorf("out[%d] = %v, want 7", i, v)
		}
	}
}

func TestUpsampleRejectsFactorOtherThanTwo(t *testing.T) {
	arena := newTestArena(t, "1M")
	in := arena.alloc(dtype.F32, 0, []int{1, 2, 2})
	out := arena.alloc(dtype.F32, 0, []int{1, 6, 6})

	err := Upsample(arena.zones, in, out, 3)
	if gigaerr.CodeOf(err) != gigaerr.IncorrectParameter {
		t.Errorf("code = %v, want IncorrectParameter", gigaerr.CodeOf(err))
	}
}

func TestUpsampleRejectsWrongOutputShape(t *testing.T) {
	arena := newTestArena(t, "1M")
	in := arena.alloc(dtype.F32, 0, []int{1, 2, 2})
	out := arena.alloc(dtype.F32, 0, []int{1, 5, 5})

	err := Upsample(arena.zones, in, out, 2)
	if gigaerr.CodeOf(err) != gigaerr.InconsistentTensorSizes {
		t.Errorf("code = %v, want InconsistentTensorSizes", gigaerr.CodeOf(err))
	}
}
