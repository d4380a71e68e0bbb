package cpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// testArena bumps a monotone offset across a single zone, mirroring how the
// reference test harness lays consecutive tensors end to end in one zone.
type testArena struct {
	t      *testing.T
	zones  *zone.Collection
	reg    *tensor.Registry
	offset int
}

func newTestArena(t *testing.T, config string) *testArena {
	t.Helper()
	zones, err := zone.New(config)
	if err != nil {
		t.Fatalf("zone.New(%q): %v", config, err)
	}
	return &testArena{t: t, zones: zones, reg: tensor.NewRegistry(zones)}
}

func (a *testArena) alloc(kind dtype.Kind, frac int, dims []int) *tensor.Descriptor {
	a.t.Helper()
	d, err := a.reg.Allocate(0, 0, a.offset, kind, frac, dims)
	if err != nil {
		a.t.Fatalf("Allocate(%v, %v): %v", kind, dims, err)
	}
	a.offset += d.ByteSize()
	return d
}

func f32Bytes(vs ...float32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func readF32Slice(buf []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func fillF32(t *testing.T, arena *testArena, d *tensor.Descriptor, vs ...float32) {
	t.Helper()
	if err := tensor.CopyToTensor(arena.zones, d, f32Bytes(vs...), dtype.F32, 0); err != nil {
		t.Fatalf("CopyToTensor: %v", err)
	}
}

func readF32(t *testing.T, arena *testArena, d *tensor.Descriptor) []float32 {
	t.Helper()
	buf := make([]byte, d.NumElements()*4)
	if err := tensor.CopyFromTensor(arena.zones, d, buf, dtype.F32, 0); err != nil {
		t.Fatalf("CopyFromTensor: %v", err)
	}
	return readF32Slice(buf, d.NumElements())
}

// tensorCopyIntSFx16 writes a single raw int16 fixed-point value directly
// into d's backing zone, bypassing CopyToTensor's kind/frac agreement so
// tests can set up mismatched fp_shift operands.
func tensorCopyIntSFx16(arena *testArena, d *tensor.Descriptor, raw int64) error {
	z, err := arena.zones.Zone(d.ZoneID)
	if err != nil {
		return err
	}
	cast.WriteInt(z.Bytes(), d.BaseOffset, d.Kind, raw)
	return nil
}

func readIntSFx16(t *testing.T, arena *testArena, d *tensor.Descriptor) int64 {
	t.Helper()
	z, err := arena.zones.Zone(d.ZoneID)
	if err != nil {
		t.Fatalf("Zone: %v", err)
	}
	return cast.ReadInt(z.Bytes(), d.BaseOffset, d.Kind)
}

func almostEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
