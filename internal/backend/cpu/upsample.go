package cpu

import (
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/parallel"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// Upsample implements §4.L: nearest-neighbor upsampling by a factor of 2
// in the H,W axes. N and C are unchanged. No arithmetic is performed, so
// it works for any element kind as long as in and out agree.
func Upsample(zones *zone.Collection, in, out *tensor.Descriptor, factor int) error {
	if factor != 2 {
		return gigaerr.Wrapf(gigaerr.IncorrectParameter, "upsample: factor must be 2, got %d", factor)
	}
	if !Default.Supported("upsample", in.Kind, out.Kind) {
		return gigaerr.New(gigaerr.UnimplementedType)
	}

	inDims, inStrides := expandToRank4(in)
	outDims, outStrides := expandToRank4(out)
	n, c, h, w := inDims[0], inDims[1], inDims[2], inDims[3]
	if want := [4]int{n, c, h * 2, w * 2}; outDims != want {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "upsample: output shape %v, want %v", outDims, want)
	}

	inZone, err := zones.Zone(in.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	outZone, err := zones.Zone(out.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	inBuf, outBuf := inZone.Bytes(), outZone.Bytes()
	elemBytes := in.Kind.Bytes()

	parallel.ForBatch(n, c, func(ni, ci int) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				inOff := in.BaseOffset + ni*inStrides[0] + ci*inStrides[1] + y*inStrides[2] + x*inStrides[3]
				src := inBuf[inOff : inOff+elemBytes]
				for _, dy := range [2]int{0, 1} {
					for _, dx := range [2]int{0, 1} {
						outOff := out.BaseOffset + ni*outStrides[0] + ci*outStrides[1] + (2*y+dy)*outStrides[2] + (2*x+dx)*outStrides[3]
						copy(outBuf[outOff:outOff+elemBytes], src)
					}
				}
			}
		}
	}, ParallelConfig)

	return nil
}
