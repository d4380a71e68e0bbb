package giga

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/giga-project/giga/internal/zone"
)

// resetForTest gives each test its own zone.Collection and device table so
// concrete byte offsets don't collide across tests sharing the process-wide
// singletons.
func resetForTest(t *testing.T) {
	t.Helper()
	zone.ResetDefaultForTest()
	resetDevicesForTest()
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

func almostEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// allocF32 allocates a fresh F32 tensor on the CPU device at a caller-given
// monotone offset and fills it, mirroring how a client stages input data
// per §4.F.
func allocF32(t *testing.T, offset *int, dims []int, vs ...float32) Handle {
	t.Helper()
	h, code := AllocateTensor(CPUDevice, 0, *offset, F32, 0, dims)
	if code != Success {
		t.Fatalf("AllocateTensor(%v): %v", dims, code)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	*offset += n * 4
	if vs != nil {
		if code := CopyToTensor(h, f32Bytes(vs...), F32, 0); code != Success {
			t.Fatalf("CopyToTensor: %v", code)
		}
	}
	return h
}

func readTensor(t *testing.T, h Handle, n int) []float32 {
	t.Helper()
	buf := make([]byte, n*4)
	if code := CopyFromTensor(h, buf, F32, 0); code != Success {
		t.Fatalf("CopyFromTensor: %v", code)
	}
	return readF32(buf)
}

// TestScenario1AddF32Rank4 is spec Scenario 1.
func TestScenario1AddF32Rank4(t *testing.T) {
	resetForTest(t)
	off := 0
	a := allocF32(t, &off, []int{1, 1, 5, 5},
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5)
	b := allocF32(t, &off, []int{1, 1, 5, 5},
		-1, 2, -3, 4, -5,
		1, -2, 3, -4, 5,
		-1, 2, -3, 4, -5,
		1, -2, 3, -4, 5,
		-1, 2, -3, 4, -5)
	out := allocF32(t, &off, []int{1, 1, 5, 5}, nil...)

	if code := Add(a, b, out); code != Success {
		t.Fatalf("Add: %v", code)
	}
	got := readTensor(t, out, 25)
	want := []float32{
		0, 4, 0, 8, 0,
		2, 0, 6, 0, 10,
		0, 4, 0, 8, 0,
		2, 0, 6, 0, 10,
		0, 4, 0, 8, 0,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestScenario2Conv2D is spec Scenario 2.
func TestScenario2Conv2D(t *testing.T) {
	resetForTest(t)
	off := 0
	in := allocF32(t, &off, []int{1, 2, 5, 5},
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,

		2, 3, 4, 5, 6,
		2, 3, 4, 5, 6,
		2, 3, 4, 5, 6,
		2, 3, 4, 5, 6,
		2, 3, 4, 5, 6)
	kernel := allocF32(t, &off, []int{2, 2, 3, 3},
		1, 0, 1, 2, 0, 2, 1, 0, 1,
		1, 1, 1, 2, 2, 2, 1, 1, 1,
		1, 0, 1, 1, 0, 1, 1, 0, 1,
		1, 1, 1, 0, 0, 0, 1, 1, 1)
	bias := allocF32(t, &off, []int{2}, 1, 2)
	out := allocF32(t, &off, []int{1, 2, 5, 5}, nil...)

	code := Conv2d(in, kernel, bias, out, Conv2DParams{
		PadH: [2]int{1, 1}, PadW: [2]int{1, 1}, StrideH: 1, StrideW: 1,
	})
	if code != Success {
		t.Fatalf("Conv2d: %v", code)
	}
	got := readTensor(t, out, 50)
	wantC0 := []float32{22, 40, 55, 70, 46, 29, 53, 73, 93, 61, 29, 53, 73, 93, 61, 29, 53, 73, 93, 61, 22, 40, 55, 70, 46}
	wantC1 := []float32{11, 19, 26, 33, 21, 18, 32, 44, 56, 36, 18, 32, 44, 56, 36, 18, 32, 44, 56, 36, 11, 19, 26, 33, 21}
	for i := range wantC0 {
		if got[i] != wantC0[i] {
			t.Errorf("out[c0,%d] = %v, want %v", i, got[i], wantC0[i])
		}
		if got[25+i] != wantC1[i] {
			t.Errorf("out[c1,%d] = %v, want %v", i, got[25+i], wantC1[i])
		}
	}
}

// TestScenario3DensePermutation is spec Scenario 3.
func TestScenario3DensePermutation(t *testing.T) {
	resetForTest(t)
	off := 0
	in := allocF32(t, &off, []int{2, 3}, 1, 2, 3, 4, 5, 6)
	kernel := allocF32(t, &off, []int{3, 3}, 1, 0, 0, 0, 0, 1, 0, 1, 0)
	out := allocF32(t, &off, []int{2, 3}, nil...)

	if code := Dense(in, kernel, Handle{}, out, false); code != Success {
		t.Fatalf("Dense: %v", code)
	}
	got := readTensor(t, out, 6)
	want := []float32{1, 3, 2, 4, 6, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestScenario4Upsample is spec Scenario 4.
func TestScenario4Upsample(t *testing.T) {
	resetForTest(t)
	off := 0
	in := allocF32(t, &off, []int{2, 5, 5},
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,

		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5)
	out := allocF32(t, &off, []int{2, 10, 10}, nil...)

	if code := Upsample(in, out, 2); code != Success {
		t.Fatalf("Upsample: %v", code)
	}
	got := readTensor(t, out, 200)
	for c := 0; c < 2; c++ {
		v := float32(1)
		if c == 1 {
			v = -1
		}
		for r := 0; r < 10; r++ {
			for col := 0; col < 10; col++ {
				want := v * float32(col/2+1)
				idx := c*100 + r*10 + col
				if got[idx] != want {
					t.Errorf("out[c=%d,r=%d,col=%d] = %v, want %v", c, r, col, got[idx], want)
				}
			}
		}
	}
}

// TestScenario5Softmax is spec Scenario 5.
func TestScenario5Softmax(t *testing.T) {
	resetForTest(t)
	off := 0
	in := allocF32(t, &off, []int{1, 3, 5, 5},
		1, 2, 3, 4, 5,
		0, 0, 0, 0, 0,
		-1, -2, -3, -4, -5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,

		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,
		-1, -2, -3, -4, -5,

		1, 2, 3, 4, 5,
		0, 0, 0, 0, 0,
		-1, -2, -3, -4, -5,
		-11, -22, -33, -44, -55,
		10, 20, 30, 40, 50)
	out := allocF32(t, &off, []int{1, 3, 5, 5}, nil...)

	if code := Softmax(in, out); code != Success {
		t.Fatalf("Softmax: %v", code)
	}
	got := readTensor(t, out, 75)
	for pos := 0; pos < 25; pos++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += got[c*25+pos]
		}
		if !almostEqual(sum, 1, 1e-4) {
			t.Errorf("softmax slice %d sums to %v, want 1", pos, sum)
		}
	}
}

// TestScenario6View is spec Scenario 6.
func TestScenario6View(t *testing.T) {
	resetForTest(t)
	off := 0
	in := allocF32(t, &off, []int{2, 5, 5},
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,

		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5,
		1, 2, 3, 4, 5)

	view, code := View(in, []int{2, 2, 2}, []int{0, 0, 1})
	if code != Success {
		t.Fatalf("View: %v", code)
	}
	got := readTensor(t, view, 8)
	want := []float32{2, 3, 2, 3, 2, 3, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("view[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReleaseThenReuseHandleIsUnknownTensor(t *testing.T) {
	resetForTest(t)
	off := 0
	h := allocF32(t, &off, []int{4}, 1, 2, 3, 4)
	if code := ReleaseTensor(h); code != Success {
		t.Fatalf("ReleaseTensor: %v", code)
	}
	if code := ReleaseTensor(h); code != UnknownTensor {
		t.Errorf("second ReleaseTensor code = %v, want UnknownTensor", code)
	}
	buf := make([]byte, 16)
	if code := CopyFromTensor(h, buf, F32, 0); code != UnknownTensor {
		t.Errorf("CopyFromTensor after release code = %v, want UnknownTensor", code)
	}
}

func TestMappedTensorRejectedAsKernelOperand(t *testing.T) {
	resetForTest(t)
	off := 0
	a := allocF32(t, &off, []int{4}, 1, 2, 3, 4)
	b := allocF32(t, &off, []int{4}, 1, 1, 1, 1)
	out := allocF32(t, &off, []int{4}, nil...)

	if _, code := MapTensor(a); code != Success {
		t.Fatalf("MapTensor: %v", code)
	}
	if code := Add(a, b, out); code != ProcessMappedTensor {
		t.Errorf("Add on mapped tensor code = %v, want ProcessMappedTensor", code)
	}
	if code := UnmapTensor(a); code != Success {
		t.Fatalf("UnmapTensor: %v", code)
	}
	if code := Add(a, b, out); code != Success {
		t.Errorf("Add after unmap code = %v, want Success", code)
	}
}

func TestListDevicesIncludesCPU(t *testing.T) {
	resetForTest(t)
	devs := ListDevices()
	if len(devs) == 0 {
		t.Fatal("ListDevices returned no devices")
	}
	if devs[0].ID != CPUDevice {
		t.Errorf("devs[0].ID = %v, want CPUDevice", devs[0].ID)
	}
	if GetDefaultDevice() != CPUDevice {
		t.Errorf("GetDefaultDevice = %v, want CPUDevice", GetDefaultDevice())
	}
}

func TestErrorCallbackInvokedOnFailure(t *testing.T) {
	resetForTest(t)
	var seen ErrorCode
	RegisterErrorCallback(func(code ErrorCode, err error) { seen = code })
	defer RegisterErrorCallback(nil)

	if code := ReleaseTensor(Handle{}); code != UnknownTensor {
		t.Fatalf("ReleaseTensor: %v", code)
	}
	if seen != UnknownTensor {
		t.Errorf("callback saw %v, want UnknownTensor", seen)
	}
}

func TestErrorToStringIsStable(t *testing.T) {
	if ErrorToString(Success) != "Success" {
		t.Errorf("ErrorToString(Success) = %q", ErrorToString(Success))
	}
	if ErrorToString(UnimplementedType) != "UnimplementedType" {
		t.Errorf("ErrorToString(UnimplementedType) = %q", ErrorToString(UnimplementedType))
	}
}
