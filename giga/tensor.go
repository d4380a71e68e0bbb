package giga

import (
	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/tensor"
)

// resolveDescriptor looks a Handle up to its owning device and live
// descriptor, translating a stale or foreign Handle into UnknownTensor.
func resolveDescriptor(h Handle) (*device, *tensor.Descriptor, ErrorCode) {
	e, ok := resolveHandle(h)
	if !ok {
		return nil, nil, fail(UnknownTensor)
	}
	d, code := getDevice(DeviceID(e.deviceID))
	if code != Success {
		return nil, nil, code
	}
	desc, ok := d.reg.Get(e.tensorID)
	if !ok {
		return nil, nil, fail(UnknownTensor)
	}
	return d, desc, Success
}

// checkNotMapped implements §5's map/kernel exclusion: none of a kernel's
// tensor operands may be currently mapped.
func checkNotMapped(descs ...*tensor.Descriptor) error {
	for _, d := range descs {
		if d != nil && d.Mapped() {
			return gigaerr.New(gigaerr.ProcessMappedTensor)
		}
	}
	return nil
}

// AllocateTensor implements §6's allocate_tensor / §4.E's allocate: it
// carves a fresh Owned tensor out of (zoneID, offset) on dev.
func AllocateTensor(dev DeviceID, zoneID, offset int, kind DataType, fracShift int, dims []int) (Handle, ErrorCode) {
	d, code := getDevice(dev)
	if code != Success {
		return Handle{}, code
	}
	desc, err := d.reg.Allocate(uint32(dev), zoneID, offset, dtype.Kind(kind), fracShift, dims)
	if err != nil {
		return Handle{}, codeOf(err)
	}
	return mintHandle(uint32(dev), desc.ID), Success
}

// View implements §6's view / §4.E's view.
func View(parent Handle, dims, offsets []int) (Handle, ErrorCode) {
	d, parentDesc, code := resolveDescriptor(parent)
	if code != Success {
		return Handle{}, code
	}
	desc, err := d.reg.View(parentDesc, dims, offsets)
	if err != nil {
		return Handle{}, codeOf(err)
	}
	return mintHandle(uint32(d.id), desc.ID), Success
}

// Reshape implements §6's reshape / §4.E's reshape.
func Reshape(parent Handle, dims []int) (Handle, ErrorCode) {
	d, parentDesc, code := resolveDescriptor(parent)
	if code != Success {
		return Handle{}, code
	}
	desc, err := d.reg.Reshape(parentDesc, dims)
	if err != nil {
		return Handle{}, codeOf(err)
	}
	return mintHandle(uint32(d.id), desc.ID), Success
}

// ReleaseTensor implements §6's release_tensor / §4.E's release.
func ReleaseTensor(h Handle) ErrorCode {
	d, desc, code := resolveDescriptor(h)
	if code != Success {
		return code
	}
	if err := d.reg.Release(desc.ID); err != nil {
		return codeOf(err)
	}
	forgetHandle(h)
	return Success
}

// MapTensor implements §6's map_tensor / §5's mapping contract: it hands
// back the tensor's raw backing bytes and marks it unusable as a kernel
// operand until UnmapTensor is called. The returned slice aliases the
// zone's storage directly; callers reading or writing it observe the
// tensor's actual strided layout, not a repacked contiguous copy.
func MapTensor(h Handle) ([]byte, ErrorCode) {
	d, desc, code := resolveDescriptor(h)
	if code != Success {
		return nil, code
	}
	if desc.Mapped() {
		return nil, fail(ProcessMappedTensor)
	}
	z, err := d.zones.Zone(desc.ZoneID)
	if err != nil {
		return nil, codeOf(err)
	}
	desc.SetMapped(true)
	buf := z.Bytes()
	// The slice spans from the first element to the end of the last one
	// under desc's own strides, so a strided view's elements are all in it.
	end := desc.BaseOffset + desc.Kind.Bytes()
	for i := 0; i < desc.Rank; i++ {
		end += (desc.Dims[i] - 1) * desc.Strides[i]
	}
	return buf[desc.BaseOffset:end], Success
}

// UnmapTensor implements §6's unmap_tensor, ending the mapping started by
// MapTensor and making the tensor usable as a kernel operand again.
func UnmapTensor(h Handle) ErrorCode {
	_, desc, code := resolveDescriptor(h)
	if code != Success {
		return code
	}
	desc.SetMapped(false)
	return Success
}

// CopyToTensor implements §6's copy_to_tensor / §4.F's host-to-device
// transfer.
func CopyToTensor(h Handle, buf []byte, kind DataType, fracShift int) ErrorCode {
	d, desc, code := resolveDescriptor(h)
	if code != Success {
		return code
	}
	if err := tensor.CopyToTensor(d.zones, desc, buf, dtype.Kind(kind), fracShift); err != nil {
		return codeOf(err)
	}
	return Success
}

// CopyFromTensor implements §6's copy_from_tensor / §4.F's device-to-host
// transfer.
func CopyFromTensor(h Handle, buf []byte, kind DataType, fracShift int) ErrorCode {
	d, desc, code := resolveDescriptor(h)
	if code != Success {
		return code
	}
	if err := tensor.CopyFromTensor(d.zones, desc, buf, dtype.Kind(kind), fracShift); err != nil {
		return codeOf(err)
	}
	return Success
}

// TensorInfo reports a live tensor's shape metadata. It has no counterpart
// named in §6's operation list, but every adapter and example built on top
// of an opaque Handle needs a way to recover the shape it describes rather
// than threading it through side channels, so it is exposed alongside the
// spec'd surface.
type TensorInfo struct {
	Rank      int
	Dims      []int
	Kind      DataType
	FracShift int
}

// DescribeTensor returns h's shape metadata.
func DescribeTensor(h Handle) (TensorInfo, ErrorCode) {
	_, desc, code := resolveDescriptor(h)
	if code != Success {
		return TensorInfo{}, code
	}
	dims := make([]int, desc.Rank)
	copy(dims, desc.Dims[:desc.Rank])
	return TensorInfo{
		Rank:      desc.Rank,
		Dims:      dims,
		Kind:      DataType(desc.Kind),
		FracShift: desc.FracShift,
	}, Success
}
