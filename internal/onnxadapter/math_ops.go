package onnxadapter

import (
	"fmt"

	"github.com/giga-project/giga/giga"
)

func handleAdd(ctx *Context, _ *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("add requires 2 inputs, got %d", len(inputs))
	}
	info, code := giga.DescribeTensor(inputs[0])
	if code != giga.Success {
		return nil, fmt.Errorf("describe: %s", code)
	}
	out, err := ctx.Alloc(info.Kind, info.FracShift, info.Dims)
	if err != nil {
		return nil, err
	}
	if code := giga.Add(inputs[0], inputs[1], out); code != giga.Success {
		return nil, fmt.Errorf("add: %s", code)
	}
	return []giga.Handle{out}, nil
}

// handleGemm maps ONNX's Y = alpha*A*B + beta*C onto §4.I's Dense kernel.
// Dense has no transpose or scalar-scale primitive, so only the
// inference-graph-export shape of Gemm -- transA=0, transB=1 (B already
// laid out (C_out, C_in), the same layout Dense expects for its kernel),
// alpha=1, beta=1 -- is supported.
func handleGemm(ctx *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("gemm requires at least 2 inputs, got %d", len(inputs))
	}
	alpha := GetAttrFloat(node, "alpha", 1.0)
	beta := GetAttrFloat(node, "beta", 1.0)
	transA := GetAttrInt(node, "transA", 0) != 0
	transB := GetAttrInt(node, "transB", 0) != 0
	if transA || !transB || alpha != 1.0 || (len(inputs) >= 3 && beta != 1.0) {
		return nil, fmt.Errorf("gemm: only transA=0, transB=1, alpha=1, beta=1 is supported")
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
	cout := kerInfo.Dims[0]
	var outDims []int
	if inInfo.Rank == 1 {
		outDims = []int{cout}
	} else {
		outDims = []int{inInfo.Dims[0], cout}
	}

	out, err := ctx.Alloc(kerInfo.Kind, kerInfo.FracShift, outDims)
	if err != nil {
		return nil, err
	}
	if code := giga.Dense(in, kernel, bias, out, false); code != giga.Success {
		return nil, fmt.Errorf("dense: %s", code)
	}
	return []giga.Handle{out}, nil
}
