package cpu

import (
	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/fixedpoint"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/parallel"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// Dense implements §4.I: Y = X·Kᵀ (+bias), with optional ReLU, using the
// same fixed-point rescale law as Conv2D. in is rank 1 or 2 as (optional
// N, C_in); kernel is rank 2 (C_out, C_in); bias, if non-nil, is rank 1
// (C_out); out has in's rank with C_in replaced by C_out.
func Dense(zones *zone.Collection, in, kernel, bias, out *tensor.Descriptor, relu bool) error {
	if kernel.Rank != 2 {
		return gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions, "dense: kernel must be rank 2, got %d", kernel.Rank)
	}
	if !Default.Supported("dense", in.Kind, out.Kind, kernel.Kind) {
		return gigaerr.New(gigaerr.UnimplementedType)
	}
	if bias != nil && bias.Kind != out.Kind {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorTypes, "dense: bias kind %s must match out kind %s", bias.Kind, out.Kind)
	}

	inDims, inStrides := expandToRank2(in)
	outDims, outStrides := expandToRank2(out)
	n, cin := inDims[0], inDims[1]
	cout := kernel.Dims[0]
	if kernel.Dims[1] != cin {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "dense: kernel C_in %d != input C_in %d", kernel.Dims[1], cin)
	}
	if bias != nil && bias.NumElements() != cout {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "dense: bias has %d elements, want %d", bias.NumElements(), cout)
	}
	if wantOut := [2]int{n, cout}; outDims != wantOut {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "dense: output shape %v, want %v", outDims, wantOut)
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

	parallel.ForBatch(n, cout, func(ni, j int) {
		var accF float64
		var accI int64
		if bias != nil {
			bOff := lastAxisOffset(bias, j)
			if computeFloat {
				accF = cast.ReadFloat(biasBuf, bOff, bias.Kind)
			} else {
				accI = fixedpoint.Shift(cast.ReadInt(biasBuf, bOff, bias.Kind), biasToAccShift)
			}
		}
		for i := 0; i < cin; i++ {
			inOff := in.BaseOffset + ni*inStrides[0] + i*inStrides[1]
			kOff := kernel.BaseOffset + j*kernel.Strides[0] + i*kernel.Strides[1]
			if computeFloat {
				accF += cast.ReadFloat(inBuf, inOff, in.Kind) * cast.ReadFloat(kerBuf, kOff, kernel.Kind)
			} else {
				accI += cast.ReadInt(inBuf, inOff, in.Kind) * cast.ReadInt(kerBuf, kOff, kernel.Kind)
			}
		}
		outOff := out.BaseOffset + ni*outStrides[0] + j*outStrides[1]
		if computeFloat {
			if relu && accF < 0 {
				accF = 0
			}
			cast.WriteFloat(outBuf, outOff, out.Kind, accF)
		} else {
			if relu && accI < 0 {
				accI = 0
			}
			cast.WriteInt(outBuf, outOff, out.Kind, fixedpoint.Shift(accI, accToOutShift))
		}
	}, ParallelConfig)

	return nil
}
