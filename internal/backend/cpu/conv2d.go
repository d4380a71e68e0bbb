package cpu

import (
	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/fixedpoint"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/parallel"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// Conv2DParams collects §4.H's scalar parameters. PadH/PadW are [lo,hi] in
// {0,1,2}; StrideH/StrideW are in {1,2}; dilation is fixed at 1 and is not
// a parameter.
type Conv2DParams struct {
	PadH, PadW       [2]int
	StrideH, StrideW int
	ReLU             bool
}

// Conv2D implements §4.H: a 3x3 convolution with per-axis padding and
// stride, optional bias, optional ReLU. in is rank 2/3/4 as (optional N,
// optional C_in, H, W); kernel is rank 4 as (C_out, C_in, 3, 3); bias, if
// non-nil, is rank 1 (C_out) or rank 2 (1, C_out); out has in's rank with
// C_in replaced by C_out and H, W replaced by the shape law's H_out, W_out.
func Conv2D(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, p Conv2DParams) error {
	if p.StrideH < 1 || p.StrideH > 2 || p.StrideW < 1 || p.StrideW > 2 {
		return gigaerr.Wrapf(gigaerr.IncorrectParameter, "conv2d: stride must be 1 or 2, got (%d,%d)", p.StrideH, p.StrideW)
	}
	for _, v := range append(append([]int{}, p.PadH[:]...), p.PadW[:]...) {
		if v < 0 || v > 2 {
			return gigaerr.Wrapf(gigaerr.IncorrectParameter, "conv2d: padding must be in {0,1,2}, got %d", v)
		}
	}
	if kernel.Rank != 4 || kernel.Dims[2] != 3 || kernel.Dims[3] != 3 {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "conv2d: kernel must be rank 4 (C_out,C_in,3,3), got rank %d dims %v", kernel.Rank, kernel.Dims[:kernel.Rank])
	}
	if !Default.Supported("conv2d", in.Kind, out.Kind, kernel.Kind) {
		return gigaerr.New(gigaerr.UnimplementedType)
	}
	if bias != nil && bias.Kind != out.Kind {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorTypes, "conv2d: bias kind %s must match out kind %s", bias.Kind, out.Kind)
	}

	inDims, inStrides := expandToRank4(in)
	outDims, outStrides := expandToRank4(out)
	n, cin, h, w := inDims[0], inDims[1], inDims[2], inDims[3]
	cout := kernel.Dims[0]
	if kernel.Dims[1] != cin {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "conv2d: kernel C_in %d != input C_in %d", kernel.Dims[1], cin)
	}
	if bias != nil && bias.NumElements() != cout {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "conv2d: bias has %d elements, want %d", bias.NumElements(), cout)
	}

	// H_out = (H + pad_lo + pad_hi - (kernel_size-1) - 1) / stride + 1: for
	// a 3x3 kernel that's -3, so padding=1 and stride=1 preserves H.
	hOut := (h+p.PadH[0]+p.PadH[1]-3)/p.StrideH + 1
	wOut := (w+p.PadW[0]+p.PadW[1]-3)/p.StrideW + 1
	wantOut := [4]int{n, cout, hOut, wOut}
	if outDims != wantOut {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "conv2d: output shape %v, want %v", outDims, wantOut)
	}

	inZone, err := zones.Zone(in.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	kerZone, err := zones.Zone(kernel.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	outZone, err := zones.Zone(out.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	inBuf, kerBuf, outBuf := inZone.Bytes(), kerZone.Bytes(), outZone.Bytes()

	var biasBuf []byte
	if bias != nil {
		biasZone, err := zones.Zone(bias.ZoneID)
		if err != nil {
			return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
		}
		biasBuf = biasZone.Bytes()
	}

	computeFloat := denseConvComputeFloat(in.Kind, kernel.Kind)
	fpIn := cast.Frac(in.Kind, in.FracShift)
	fpKer := cast.Frac(kernel.Kind, kernel.FracShift)
	fpOut := cast.Frac(out.Kind, out.FracShift)
	fpBias := 0
	if bias != nil {
		fpBias = cast.Frac(bias.Kind, bias.FracShift)
	}
	biasToAccShift := fpIn + fpKer - fpBias
	accToOutShift := fpOut - fpIn - fpKer

	kh3, kw3 := kernel.Dims[2], kernel.Dims[3]
	parallel.ForBatch(n, cout, func(ni, co int) {
		var biasValF float64
		var biasValI int64
		if bias != nil {
			bOff := lastAxisOffset(bias, co)
			if computeFloat {
				biasValF = cast.ReadFloat(biasBuf, bOff, bias.Kind)
			} else {
				biasValI = fixedpoint.Shift(cast.ReadInt(biasBuf, bOff, bias.Kind), biasToAccShift)
			}
		}
		for ho := 0; ho < hOut; ho++ {
			for wo := 0; wo < wOut; wo++ {
				accF := biasValF
				accI := biasValI
				for ci := 0; ci < cin; ci++ {
					for kh := 0; kh < kh3; kh++ {
						hin := ho*p.StrideH - p.PadH[0] + kh
						if hin < 0 || hin >= h {
							continue
						}
						for kw := 0; kw < kw3; kw++ {
							win := wo*p.StrideW - p.PadW[0] + kw
							if win < 0 || win >= w {
								continue
							}
							inOff := ni*inStrides[0] + ci*inStrides[1] + hin*inStrides[2] + win*inStrides[3]
							kOff := co*kernel.Strides[0] + ci*kernel.Strides[1] + kh*kernel.Strides[2] + kw*kernel.Strides[3]
							if computeFloat {
								accF += cast.ReadFloat(inBuf, in.BaseOffset+inOff, in.Kind) * cast.ReadFloat(kerBuf, kernel.BaseOffset+kOff, kernel.Kind)
							} else {
								accI += cast.ReadInt(inBuf, in.BaseOffset+inOff, in.Kind) * cast.ReadInt(kerBuf, kernel.BaseOffset+kOff, kernel.Kind)
							}
						}
					}
				}
				outOff := out.BaseOffset + ni*outStrides[0] + co*outStrides[1] + ho*outStrides[2] + wo*outStrides[3]
				if computeFloat {
					if p.ReLU && accF < 0 {
						accF = 0
					}
					cast.WriteFloat(outBuf, outOff, out.Kind, accF)
				} else {
					if p.ReLU && accI < 0 {
						accI = 0
					}
					cast.WriteInt(outBuf, outOff, out.Kind, fixedpoint.Shift(accI, accToOutShift))
				}
			}
		}
	}, ParallelConfig)

	return nil
}

