package cast

import (
	"math"

	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/fixedpoint"
)

// Element converts the value stored at srcBuf[srcOff:] (of kind srcKind,
// fractional shift srcFrac) into dstBuf[dstOff:] (of kind dstKind,
// fractional shift dstFrac), following the four cases of §4.C.
//
// fracShift is only meaningful for fixed-point kinds; it is ignored (but
// must still be supplied as 0, by convention) for floating kinds.
func Element(dstBuf []byte, dstOff int, dstKind dtype.Kind, dstFrac int,
	srcBuf []byte, srcOff int, srcKind dtype.Kind, srcFrac int) {

	delta := Frac(dstKind, dstFrac) - Frac(srcKind, srcFrac)

	switch {
	case srcKind.IsFloat() && dstKind.IsFloat():
		WriteFloat(dstBuf, dstOff, dstKind, ReadFloat(srcBuf, srcOff, srcKind))

	case srcKind.IsFloat() && !dstKind.IsFloat():
		x := ReadFloat(srcBuf, srcOff, srcKind)
		scaled := x * math.Pow(2, float64(delta))
		WriteInt(dstBuf, dstOff, dstKind, int64(math.Trunc(scaled)))

	case !srcKind.IsFloat() && dstKind.IsFloat():
		x := ReadInt(srcBuf, srcOff, srcKind)
		WriteFloat(dstBuf, dstOff, dstKind, float64(x)*math.Pow(2, float64(delta)))

	default: // integer -> integer
		x := ReadInt(srcBuf, srcOff, srcKind)
		WriteInt(dstBuf, dstOff, dstKind, fixedpoint.Shift(x, delta))
	}
}

// Frac returns the fractional shift to use in the Δ computation of §4.C:
// zero for float kinds regardless of what fp_shift they were given. Kernel
// packages use this directly when computing the accumulator/output
// rescale shifts of §4.H/§4.I.
func Frac(k dtype.Kind, fp int) int {
	if k.IsFloat() {
		return 0
	}
	return fp
}
