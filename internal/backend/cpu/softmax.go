package cpu

import (
	"math"

	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/tensor"
	"github.com/giga-project/giga/internal/zone"
)

// Softmax implements §4.K: a numerically-stable softmax along the axis
// determined by rank (rank 1: axis 0; rank 2: axis 1, axis 0 is batch;
// rank 3: axis 0 as channel with H,W independent; rank 4: axis 1 as
// channel with N,H,W independent). Fixed-point operands are cast to float
// for the computation and cast back through the output's fp_shift.
func Softmax(zones *zone.Collection, in, out *tensor.Descriptor) error {
	if !Default.Supported("softmax", in.Kind, out.Kind) {
		return gigaerr.New(gigaerr.UnimplementedType)
	}
	if in.Rank != out.Rank {
		return gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions, "softmax: rank mismatch (%d, %d)", in.Rank, out.Rank)
	}
	for i := 0; i < in.Rank; i++ {
		if in.Dims[i] != out.Dims[i] {
			return gigaerr.Wrapf(gigaerr.InconsistentTensorSizes, "softmax: dim %d mismatch (%d, %d)", i, in.Dims[i], out.Dims[i])
		}
	}
	axis, err := softmaxAxis(in.Rank)
	if err != nil {
		return err
	}

	inZone, err2 := zones.Zone(in.ZoneID)
	if err2 != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err2)
	}
	outZone, err2 := zones.Zone(out.ZoneID)
	if err2 != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err2)
	}
	inBuf, outBuf := inZone.Bytes(), outZone.Bytes()

	fracIn := cast.Frac(in.Kind, in.FracShift)
	fracOut := cast.Frac(out.Kind, out.FracShift)

	batchDims := make([]int, 0, in.Rank-1)
	batchAxes := make([]int, 0, in.Rank-1)
	for i := 0; i < in.Rank; i++ {
		if i == axis {
			continue
		}
		batchDims = append(batchDims, in.Dims[i])
		batchAxes = append(batchAxes, i)
	}

	axisLen := in.Dims[axis]
	e := make([]float64, axisLen)

	visit := func(batchIdx []int) {
		idx := make([]int, in.Rank)
		for k, a := range batchAxes {
			idx[a] = batchIdx[k]
		}

		max := math.Inf(-1)
		for a := 0; a < axisLen; a++ {
			idx[axis] = a
			off := in.BaseOffset + tensor.FlatOffset(idx, in.Strides[:in.Rank])
			v := readAsFloat(inBuf, off, in.Kind, fracIn)
			if v > max {
				max = v
			}
		}

		sum := 0.0
		for a := 0; a < axisLen; a++ {
			idx[axis] = a
			off := in.BaseOffset + tensor.FlatOffset(idx, in.Strides[:in.Rank])
			v := readAsFloat(inBuf, off, in.Kind, fracIn)
			ev := math.Exp(v - max)
			e[a] = ev
			sum += ev
		}

		for a := 0; a < axisLen; a++ {
			idx[axis] = a
			off := out.BaseOffset + tensor.FlatOffset(idx, out.Strides[:out.Rank])
			writeFromFloat(outBuf, off, out.Kind, fracOut, e[a]/sum)
		}
	}

	if len(batchDims) == 0 {
		visit(nil)
	} else {
		tensor.WalkDims(batchDims, visit)
	}
	return nil
}

func softmaxAxis(rank int) (int, error) {
	switch rank {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 3:
		return 0, nil
	case 4:
		return 1, nil
	default:
		return 0, gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions, "softmax: unsupported rank %d", rank)
	}
}

// readAsFloat reads the element at off as a float64 in its represented
// value (i.e. already divided by 2^fracShift for fixed-point kinds).
func readAsFloat(buf []byte, off int, k dtype.Kind, fracShift int) float64 {
	if k.IsFloat() {
		return cast.ReadFloat(buf, off, k)
	}
	return float64(cast.ReadInt(buf, off, k)) * math.Pow(2, float64(-fracShift))
}

// writeFromFloat stores v (a represented value) at off as kind k,
// multiplying by 2^fracShift and truncating for fixed-point kinds.
func writeFromFloat(buf []byte, off int, k dtype.Kind, fracShift int, v float64) {
	if k.IsFloat() {
		cast.WriteFloat(buf, off, k, v)
		return
	}
	cast.WriteInt(buf, off, k, int64(math.Trunc(v*math.Pow(2, float64(fracShift)))))
}
