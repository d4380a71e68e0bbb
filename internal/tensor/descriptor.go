// Package tensor implements the tensor descriptor and storage handle model
// of §3, and the allocate/view/reshape operations of §4.E.
package tensor

import (
	"github.com/giga-project/giga/internal/dtype"
)

// StorageTag distinguishes how a tensor's bytes relate to a parent.
type StorageTag uint8

const (
	// Owned means the tensor carved a fresh range out of a zone.
	Owned StorageTag = iota
	// View means the tensor shares its parent's strides over a sub-range.
	View
	// Reshape means the tensor aliases its parent's bytes under a new
	// shape, with strides derived from the parent's strides so the same
	// bytes are addressed (row-major only when the parent is contiguous).
	Reshape
)

func (t StorageTag) String() string {
	switch t {
	case Owned:
		return "Owned"
	case View:
		return "View"
	case Reshape:
		return "Reshape"
	default:
		return "Unknown"
	}
}

// Storage is the tagged reference described in §3: a tensor's bytes are
// either owned outright, borrowed as a view of a parent, or aliased via a
// reshape of a parent.
type Storage struct {
	Tag      StorageTag
	ParentID uint64 // 0 for Owned
}

// Descriptor is the tensor record of §3: shape, strides, element kind,
// fractional shift, device, and the storage handle referring to its
// backing bytes.
type Descriptor struct {
	ID        uint64
	DeviceID  uint32
	Rank      int
	Dims      [4]int
	Strides   [4]int // bytes
	Kind      dtype.Kind
	FracShift int
	Storage   Storage

	// ZoneID and BaseOffset are resolved at creation time regardless of
	// Storage.Tag: every descriptor, owned or aliased, knows exactly
	// which zone and byte offset backs it.
	ZoneID     int
	BaseOffset int

	mapped bool
}

// Mapped reports whether the tensor is currently exposed to the host via
// Map, which forbids using it as a kernel input (§5, ProcessMappedTensor).
func (d *Descriptor) Mapped() bool { return d.mapped }

// SetMapped flips the mapped flag. Map/Unmap live at the giga package
// boundary (they hand back a raw byte slice, which this package's
// zone-indexed model has no reason to expose internally); this setter is
// the seam that lets that boundary code enforce §5's map/kernel exclusion.
func (d *Descriptor) SetMapped(mapped bool) { d.mapped = mapped }

// NumElements returns the product of the valid dims.
func (d *Descriptor) NumElements() int {
	n := 1
	for i := 0; i < d.Rank; i++ {
		n *= d.Dims[i]
	}
	return n
}

// ByteSize returns the number of bytes a *freshly allocated, contiguous*
// tensor of this shape and kind would occupy. For views/reshapes this is
// not the same as the range of memory they touch (which is bounded by
// their strides and dims instead).
func (d *Descriptor) ByteSize() int {
	return d.NumElements() * d.Kind.Bytes()
}

// dims returns a slice view of the valid leading Dims entries.
func (d *Descriptor) dims() []int { return d.Dims[:d.Rank] }

// strides returns a slice view of the valid leading Strides entries.
func (d *Descriptor) strides() []int { return d.Strides[:d.Rank] }

// rowMajorStrides computes byte strides for dims in row-major order
// (invariant 1 of §3): strides[r-1] = elementBytes, strides[i] =
// strides[i+1]*dims[i+1].
func rowMajorStrides(dims []int, elementBytes int) []int {
	strides := make([]int, len(dims))
	if len(dims) == 0 {
		return strides
	}
	strides[len(dims)-1] = elementBytes
	for i := len(dims) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * dims[i+1]
	}
	return strides
}
