package onnxadapter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/giga-project/giga/giga"
	"github.com/giga-project/giga/internal/zone"
)

func resetForTest(t *testing.T) {
	t.Helper()
	zone.ResetDefaultForTest()
}

func f32Bytes(vs ...float32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func readF32(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func bindF32(t *testing.T, ctx *Context, name string, dims []int, vs ...float32) giga.Handle {
	t.Helper()
	h, err := ctx.Alloc(giga.F32, 0, dims)
	if err != nil {
		t.Fatalf("Alloc(%s): %v", name, err)
	}
	if code := giga.CopyToTensor(h, f32Bytes(vs...), giga.F32, 0); code != giga.Success {
		t.Fatalf("CopyToTensor(%s): %v", name, code)
	}
	ctx.Bind(name, h)
	return h
}

func readOut(t *testing.T, h giga.Handle, n int) []float32 {
	t.Helper()
	buf := make([]byte, n*4)
	if code := giga.CopyFromTensor(h, buf, giga.F32, 0); code != giga.Success {
		t.Fatalf("CopyFromTensor: %v", code)
	}
	return readF32(buf)
}

func TestExecuteAdd(t *testing.T) {
	resetForTest(t)
	ctx := NewContext(giga.CPUDevice, 0, 0)
	bindF32(t, ctx, "a", []int{4}, 1, 2, 3, 4)
	bindF32(t, ctx, "b", []int{4}, 10, 20, 30, 40)

	r := NewRegistry()
	node := &Node{OpType: "Add", Inputs: []string{"a", "b"}, Outputs: []string{"c"}}
	if _, err := r.Execute(ctx, node); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out, ok := ctx.Lookup("c")
	if !ok {
		t.Fatal("output not bound")
	}
	got := readOut(t, out, 4)
	want := []float32{11, 22, 33, 44}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("c[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestExecuteGemm mirrors spec Scenario 3's permutation-kernel dense case,
// exercised through Gemm(transA=0, transB=1, alpha=1, beta=1).
func TestExecuteGemm(t *testing.T) {
	resetForTest(t)
	ctx := NewContext(giga.CPUDevice, 0, 0)
	bindF32(t, ctx, "x", []int{2, 3}, 1, 2, 3, 4, 5, 6)
	bindF32(t, ctx, "w", []int{3, 3}, 1, 0, 0, 0, 0, 1, 0, 1, 0)

	r := NewRegistry()
	node := &Node{
		OpType:  "Gemm",
		Inputs:  []string{"x", "w"},
		Outputs: []string{"y"},
		Attributes: []Attribute{
			{Name: "transB", I: 1},
		},
	}
	if _, err := r.Execute(ctx, node); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out, _ := ctx.Lookup("y")
	got := readOut(t, out, 6)
	want := []float32{1, 3, 2, 4, 6, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExecuteGemmRejectsUnsupportedAttrs(t *testing.T) {
	resetForTest(t)
	ctx := NewContext(giga.CPUDevice, 0, 0)
	bindF32(t, ctx, "x", []int{2, 3}, 1, 2, 3, 4, 5, 6)
	bindF32(t, ctx, "w", []int{3, 3}, 1, 0, 0, 0, 0, 1, 0, 1, 0)

	r := NewRegistry()
	node := &Node{
		OpType:  "Gemm",
		Inputs:  []string{"x", "w"},
		Outputs: []string{"y"},
		Attributes: []Attribute{
			{Name: "transB", I: 1},
			{Name: "alpha", F: 2.0},
		},
	}
	if _, err := r.Execute(ctx, node); err == nil {
		t.Fatal("expected error for alpha != 1")
	}
}

func TestExecuteReshape(t *testing.T) {
	resetForTest(t)
	ctx := NewContext(giga.CPUDevice, 0, 0)
	bindF32(t, ctx, "x", []int{2, 3}, 1, 2, 3, 4, 5, 6)

	r := NewRegistry()
	node := &Node{
		OpType:  "Reshape",
		Inputs:  []string{"x"},
		Outputs: []string{"y"},
		Attributes: []Attribute{
			{Name: "shape", Ints: []int64{3, 2}},
		},
	}
	if _, err := r.Execute(ctx, node); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out, _ := ctx.Lookup("y")
	info, code := giga.DescribeTensor(out)
	if code != giga.Success {
		t.Fatalf("DescribeTensor: %v", code)
	}
	if info.Dims[0] != 3 || info.Dims[1] != 2 {
		t.Errorf("reshaped dims = %v, want [3 2]", info.Dims)
	}
}

func TestExecuteUnknownOpType(t *testing.T) {
	resetForTest(t)
	ctx := NewContext(giga.CPUDevice, 0, 0)
	r := NewRegistry()
	node := &Node{OpType: "Frobnicate"}
	if _, err := r.Execute(ctx, node); err == nil {
		t.Fatal("expected error for unsupported op")
	}
}
