package tensor

import (
	"github.com/giga-project/giga/internal/cast"
	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/zone"
)

// CopyToTensor implements §4.F's host-to-device transfer: hostBuf holds
// NumElements(dst) elements of kind hostKind (fractional shift hostFrac)
// laid out row-major and contiguous, matching dst.Dims. When hostKind,
// hostFrac and dst's own kind/fp_shift agree and dst is itself contiguous,
// the whole span is memcpy'd; otherwise every element is cast individually,
// walking dst's actual strides so views and reshapes are copied correctly.
func CopyToTensor(zones *zone.Collection, dst *Descriptor, hostBuf []byte, hostKind dtype.Kind, hostFrac int) error {
	if dst.Mapped() {
		return gigaerr.New(gigaerr.ProcessMappedTensor)
	}
	z, err := zones.Zone(dst.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	n := dst.NumElements()
	if len(hostBuf) < n*hostKind.Bytes() {
		return gigaerr.Wrapf(gigaerr.IncorrectParameter,
			"copy_to_tensor: host buffer has %d bytes, need %d", len(hostBuf), n*hostKind.Bytes())
	}

	buf := z.Bytes()

	if hostKind == dst.Kind && sameFrac(hostKind, hostFrac, dst.FracShift) && isContiguousDesc(dst) {
		copy(buf[dst.BaseOffset:dst.BaseOffset+dst.ByteSize()], hostBuf[:dst.ByteSize()])
		return nil
	}

	hostStrides := rowMajorStrides(dst.dims(), hostKind.Bytes())
	WalkDims(dst.dims(), func(idx []int) {
		hostOff := FlatOffset(idx, hostStrides)
		dstOff := dst.BaseOffset + FlatOffset(idx, dst.strides())
		cast.Element(buf, dstOff, dst.Kind, dst.FracShift, hostBuf, hostOff, hostKind, hostFrac)
	})
	return nil
}

// CopyFromTensor implements §4.F's device-to-host transfer, the mirror of
// CopyToTensor: hostBuf receives NumElements(src) elements of kind
// hostKind, row-major and contiguous.
func CopyFromTensor(zones *zone.Collection, src *Descriptor, hostBuf []byte, hostKind dtype.Kind, hostFrac int) error {
	z, err := zones.Zone(src.ZoneID)
	if err != nil {
		return gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}
	n := src.NumElements()
	if len(hostBuf) < n*hostKind.Bytes() {
		return gigaerr.Wrapf(gigaerr.IncorrectParameter,
			"copy_from_tensor: host buffer has %d bytes, need %d", len(hostBuf), n*hostKind.Bytes())
	}

	buf := z.Bytes()

	if hostKind == src.Kind && sameFrac(hostKind, hostFrac, src.FracShift) && isContiguousDesc(src) {
		copy(hostBuf[:src.ByteSize()], buf[src.BaseOffset:src.BaseOffset+src.ByteSize()])
		return nil
	}

	hostStrides := rowMajorStrides(src.dims(), hostKind.Bytes())
	WalkDims(src.dims(), func(idx []int) {
		hostOff := FlatOffset(idx, hostStrides)
		srcOff := src.BaseOffset + FlatOffset(idx, src.strides())
		cast.Element(hostBuf, hostOff, hostKind, hostFrac, buf, srcOff, src.Kind, src.FracShift)
	})
	return nil
}

// sameFrac reports whether two fractional shifts agree, ignoring the value
// for floating kinds where fp_shift carries no meaning.
func sameFrac(k dtype.Kind, a, b int) bool {
	if k.IsFloat() {
		return true
	}
	return a == b
}

// isContiguousDesc reports whether d's strides are exactly the row-major
// strides implied by its dims -- the condition under which a bulk memcpy
// is safe.
func isContiguousDesc(d *Descriptor) bool {
	want := rowMajorStrides(d.dims(), d.Kind.Bytes())
	strides := d.strides()
	for i := range want {
		if want[i] != strides[i] {
			return false
		}
	}
	return true
}

// FlatOffset computes the byte offset of idx (one coordinate per axis)
// under the given per-axis byte strides. Exported for use by kernel
// packages that need to walk a tensor's own strides (e.g. Add).
func FlatOffset(idx, strides []int) int {
	off := 0
	for i, s := range strides {
		off += idx[i] * s
	}
	return off
}

// WalkDims calls visit once for every multi-index in row-major order over
// dims, reusing a single scratch slice.
func WalkDims(dims []int, visit func(idx []int)) {
	rank := len(dims)
	if rank == 0 {
		return
	}
	idx := make([]int, rank)
	for {
		visit(idx)
		axis := rank - 1
		for axis >= 0 {
			idx[axis]++
			if idx[axis] < dims[axis] {
				break
			}
			idx[axis] = 0
			axis--
		}
		if axis < 0 {
			return
		}
	}
}
