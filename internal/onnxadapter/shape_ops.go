package onnxadapter

import (
	"fmt"

	"github.com/giga-project/giga/giga"
)

var softmaxAxisByRank = map[int]int64{1: 0, 2: 1, 3: 0, 4: 1}

// handleSoftmax maps ONNX's Softmax onto §4.K. giga's softmax axis is
// fixed by rank rather than caller-selectable, so an axis attribute that
// disagrees with the rank-determined axis is rejected.
func handleSoftmax(ctx *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("softmax requires 1 input, got %d", len(inputs))
	}
	info, code := giga.DescribeTensor(inputs[0])
	if code != giga.Success {
		return nil, fmt.Errorf("describe: %s", code)
	}
	wantAxis, ok := softmaxAxisByRank[info.Rank]
	if !ok {
		return nil, fmt.Errorf("softmax: unsupported rank %d", info.Rank)
	}
	if axis := GetAttrInt(node, "axis", wantAxis); axis != wantAxis {
		return nil, fmt.Errorf("softmax: axis %d unsupported for rank %d tensor, giga fixes the axis by rank (want %d)", axis, info.Rank, wantAxis)
	}
	out, err := ctx.Alloc(info.Kind, info.FracShift, info.Dims)
	if err != nil {
		return nil, err
	}
	if code := giga.Softmax(inputs[0], out); code != giga.Success {
		return nil, fmt.Errorf("softmax: %s", code)
	}
	return []giga.Handle{out}, nil
}

// handleResize maps ONNX's Resize/Upsample (nearest, scale 2 in H,W) onto
// §4.L's Upsample.
func handleResize(ctx *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("resize requires at least 1 input")
	}
	if mode := GetAttrString(node, "mode", "nearest"); mode != "nearest" && mode != "" {
		return nil, fmt.Errorf("resize: mode %q unsupported, only nearest", mode)
	}
	info, code := giga.DescribeTensor(inputs[0])
	if code != giga.Success {
		return nil, fmt.Errorf("describe: %s", code)
	}
	if info.Rank < 2 {
		return nil, fmt.Errorf("resize: rank %d too small, need spatial H,W axes", info.Rank)
	}
	dims := append([]int(nil), info.Dims...)
	dims[info.Rank-2] *= 2
	dims[info.Rank-1] *= 2

	out, err := ctx.Alloc(info.Kind, info.FracShift, dims)
	if err != nil {
		return nil, err
	}
	if code := giga.Upsample(inputs[0], out, 2); code != giga.Success {
		return nil, fmt.Errorf("upsample: %s", code)
	}
	return []giga.Handle{out}, nil
}

// handleReshape maps ONNX's Reshape onto §4.E's reshape. ONNX carries the
// target shape as a second graph input rather than an attribute, but
// giga's tensors have no dynamic shapes after allocation (§1 non-goals),
// so a compliant graph converter must have already resolved that input to
// a compile-time constant; this handler expects it as a "shape" attribute
// rather than re-deriving it from a runtime tensor lookup.
func handleReshape(_ *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("reshape requires at least 1 input")
	}
	shape := GetAttrInts(node, "shape")
	if shape == nil {
		return nil, fmt.Errorf("reshape: node %q has no \"shape\" attribute", node.Name)
	}
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	out, code := giga.Reshape(inputs[0], dims)
	if code != giga.Success {
		return nil, fmt.Errorf("reshape: %s", code)
	}
	return []giga.Handle{out}, nil
}
