package cpu

import (
	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/fixedpoint"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// Add implements §4.J: element-wise sum of two equally-shaped tensors,
// each rescaled independently to the output's fractional frame before
// summing. No broadcasting -- rank and every dim must match exactly.
func Add(zones *zone.Collection, a, b, out *tensor.Descriptor) error {
	if a.Kind != b.Kind || a.Kind != out.Kind {
		return gigaerr.Wrapf(gigaerr.InconsistentTensorTypes, "add: kinds must match (%s, %s, %s)", a.Kind, b.Kind, out.Kind)
	}
	if !Default.Supported("add", a.Kind, b.Kind, out.Kind) {
		return gigaerr.New(gigaerr.UnimplementedType)
	}
	if a.Rank != b.Rank || a.Rank != out.Rank {
		return gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions, "add: rank mismatch (%d, %d, %d)", a.Rank, b.Rank, out.Rank)
	}
	for i := 0; i < a.Rank; i++ {
		if a.Dims[i] != b.Dims[i] || a.Dims[i] != out.Dims[i] {
			return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "add: dim %d mismatch (%d, %d, %d)", i, a.Dims[i], b.Dims[i], out.Dims[i])
		}
	}

	aZone, err := zones.Zone(a.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	bZone, err := zones.Zone(b.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	outZone, err := zones.Zone(out.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	aBuf, bBuf, outBuf := aZone.Bytes(), bZone.Bytes(), outZone.Bytes()

	kind := out.Kind
	fpA := cast.Frac(kind, a.FracShift)
	fpB := cast.Frac(kind, b.FracShift)
	fpOut := cast.Frac(kind, out.FracShift)
	shiftA := fpOut - fpA
	shiftB := fpOut - fpB

	tensor.WalkDims(out.Dims[:out.Rank], func(idx []int) {
		aOff := a.BaseOffset + tensor.FlatOffset(idx, a.Strides[:a.Rank])
		bOff := b.BaseOffset + tensor.FlatOffset(idx, b.Strides[:b.Rank])
		outOff := out.BaseOffset + tensor.FlatOffset(idx, out.Strides[:out.Rank])

		if kind.IsFloat() {
			sum := cast.ReadFloat(aBuf, aOff, kind) + cast.ReadFloat(bBuf, bOff, kind)
			cast.WriteFloat(outBuf, outOff, kind, sum)
			return
		}
		sum := fixedpoint.Shift(cast.ReadInt(aBuf, aOff, kind), shiftA) + fixedpoint.Shift(cast.ReadInt(bBuf, bOff, kind), shiftB)
		cast.WriteInt(outBuf, outOff, kind, sum)
	})

	return nil
}
