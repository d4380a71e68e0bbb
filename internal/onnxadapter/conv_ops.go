package onnxadapter

import (
	"fmt"

	"github.com/giga-project/giga/giga"
)

// handleConv maps ONNX's Conv onto §4.H's Conv2D. Grouped and dilated
// convolutions are out of scope for the reference kernel and rejected
// explicitly rather than silently mis-executed.
func handleConv(ctx *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("conv requires at least 2 inputs (X, W), got %d", len(inputs))
	}
	if group := GetAttrInt(node, "group", 1); group != 1 {
		return nil, fmt.Errorf("conv: group=%d unsupported, giga's conv2d has no grouped convolution", group)
	}
	for _, d := range GetAttrInts(node, "dilations") {
		if d != 1 {
			return nil, fmt.Errorf("conv: dilation %d unsupported, only dilation=1", d)
		}
	}

	var padH, padW [2]int
	if pads := GetAttrInts(node, "pads"); len(pads) == 4 {
		padH = [2]int{int(pads[0]), int(pads[2])}
		padW = [2]int{int(pads[1]), int(pads[3])}
	}
	strideH, strideW := 1, 1
	if strides := GetAttrInts(node, "strides"); len(strides) == 2 {
		strideH, strideW = int(strides[0]), int(strides[1])
	}

	in, kernel := inputs[0], inputs[1]
	var bias giga.Handle
	if len(inputs) >= 3 {
		bias = inputs[2]
	}

	inInfo, code := giga.DescribeTensor(in)
	if code != giga.Success {
		return nil, fmt.Errorf("describe input: %s", code)
	}
	kerInfo, code := giga.DescribeTensor(kernel)
	if code != giga.Success {
		return nil, fmt.Errorf("describe kernel: %s", code)
	}
	if inInfo.Rank < 3 {
		return nil, fmt.Errorf("conv: input rank %d too small, need spatial H,W axes", inInfo.Rank)
	}
	cout := kerInfo.Dims[0]
	hIn, wIn := inInfo.Dims[inInfo.Rank-2], inInfo.Dims[inInfo.Rank-1]
	hOut := (hIn+padH[0]+padH[1]-3)/strideH + 1
	wOut := (wIn+padW[0]+padW[1]-3)/strideW + 1

	outDims := make([]int, inInfo.Rank)
	copy(outDims, inInfo.Dims[:inInfo.Rank-3])
	outDims[inInfo.Rank-3] = cout
	outDims[inInfo.Rank-2] = hOut
	outDims[inInfo.Rank-1] = wOut

	out, err := ctx.Alloc(kerInfo.Kind, kerInfo.FracShift, outDims)
	if err != nil {
		return nil, err
	}
	p := giga.Conv2DParams{PadH: padH, PadW: padW, StrideH: strideH, StrideW: strideW}
	if code := giga.Conv2d(in, kernel, bias, out, p); code != giga.Success {
		return nil, fmt.Errorf("conv2d: %s", code)
	}
	return []giga.Handle{out}, nil
}
