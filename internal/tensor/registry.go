package tensor

import (
	"sync"

	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/gigaerr"
	"github.com/giga-project/giga/internal/zone"
)

// Registry is the process-wide table of live tensor descriptors, backed by
// a zone.Collection. It implements the allocate/view/reshape/release
// operations of §4.E.
type Registry struct {
	mu      sync.Mutex
	zones   *zone.Collection
	tensors map[uint64]*Descriptor
	nextID  uint64
}

// NewRegistry creates an empty registry backed by zones.
func NewRegistry(zones *zone.Collection) *Registry {
	return &Registry{
		zones:   zones,
		tensors: make(map[uint64]*Descriptor),
	}
}

// Get looks up a live descriptor by handle id.
func (r *Registry) Get(id uint64) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.tensors[id]
	return d, ok
}

// Allocate carves a fresh Owned tensor out of zoneID at offset (§4.E
// allocate). Rank must be in {1,2,3,4}; every dim must be positive
// (zero-length tensors are not supported).
func (r *Registry) Allocate(deviceID uint32, zoneID, offset int, kind dtype.Kind, fracShift int, dims []int) (*Descriptor, error) {
	if err := validateRank(len(dims)); err != nil {
		return nil, err
	}
	for _, d := range dims {
		if d <= 0 {
			return nil, gigaerr.Wrapf(gigaerr.IncorrectParameter, "allocate: dims must be positive, got %v", dims)
		}
	}
	if !kind.Valid() {
		return nil, gigaerr.Wrapf(gigaerr.IncorrectParameter, "allocate: invalid element kind %d", kind)
	}
	if fracShift < 0 || (kind.IsFixedPoint() && fracShift > kind.MaxFracShift()) {
		return nil, gigaerr.Wrapf(gigaerr.IncorrectParameter, "allocate: fp_shift %d out of range for %s", fracShift, kind)
	}

	z, err := r.zones.Zone(zoneID)
	if err != nil {
		return nil, gigaerr.Wrap(gigaerr.IncorrectParameter, err)
	}

	strides := rowMajorStrides(dims, kind.Bytes())
	size := strides[0] * dims[0] // row-major: strides[0] already folds in every other axis

	if err := z.Reserve(offset, size); err != nil {
		return nil, gigaerr.Wrap(gigaerr.OutOfDeviceMemory, err)
	}

	desc := &Descriptor{
		DeviceID:   deviceID,
		Rank:       len(dims),
		Kind:       kind,
		FracShift:  fracShift,
		Storage:    Storage{Tag: Owned},
		ZoneID:     zoneID,
		BaseOffset: offset,
	}
	copy(desc.Dims[:], dims)
	copy(desc.Strides[:], strides)

	r.mu.Lock()
	r.nextID++
	desc.ID = r.nextID
	r.tensors[desc.ID] = desc
	r.mu.Unlock()

	return desc, nil
}

// View creates a tensor that borrows a sub-range of parent's bytes at the
// given per-axis element offsets, per §4.E view / invariant 2.
func (r *Registry) View(parent *Descriptor, dims []int, offsets []int) (*Descriptor, error) {
	if len(dims) != parent.Rank || len(offsets) != parent.Rank {
		return nil, gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions,
			"view: expected rank %d, got dims=%d offsets=%d", parent.Rank, len(dims), len(offsets))
	}
	for i := 0; i < parent.Rank; i++ {
		if offsets[i] < 0 || dims[i] <= 0 || offsets[i]+dims[i] > parent.Dims[i] {
			// §9 open question 1: the reference source does not always
			// validate this; we do, and return IncorrectParameter.
			return nil, gigaerr.Wrapf(gigaerr.IncorrectParameter,
				"view: axis %d offset %d + size %d exceeds parent dim %d", i, offsets[i], dims[i], parent.Dims[i])
		}
	}

	base := parent.BaseOffset
	for i := 0; i < parent.Rank; i++ {
		base += offsets[i] * parent.Strides[i]
	}

	desc := &Descriptor{
		DeviceID:   parent.DeviceID,
		Rank:       parent.Rank,
		Kind:       parent.Kind,
		FracShift:  parent.FracShift,
		Storage:    Storage{Tag: View, ParentID: parent.ID},
		ZoneID:     parent.ZoneID,
		BaseOffset: base,
	}
	copy(desc.Dims[:], dims)
	copy(desc.Strides[:], parent.strides())

	r.mu.Lock()
	r.nextID++
	desc.ID = r.nextID
	r.tensors[desc.ID] = desc
	r.mu.Unlock()

	return desc, nil
}

// Reshape creates a tensor aliasing parent's bytes under a new shape, per
// §4.E reshape / invariant 3. Same kind, same fp_shift, and equal element
// count are required; for a non-contiguous parent the new geometry must
// not bridge a stride hole.
func (r *Registry) Reshape(parent *Descriptor, dims []int) (*Descriptor, error) {
	if err := validateRank(len(dims)); err != nil {
		return nil, err
	}
	newCount := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, gigaerr.Wrapf(gigaerr.IncorrectParameter, "reshape: dims must be positive, got %v", dims)
		}
		newCount *= d
	}
	if newCount != parent.NumElements() {
		return nil, gigaerr.Wrapf(gigaerr.InconsistentTensorSizes,
			"reshape: element count mismatch %d -> %d", parent.NumElements(), newCount)
	}

	newStrides, ok := reshapeStrides(parent.dims(), parent.strides(), dims, parent.Kind.Bytes())
	if !ok {
		return nil, gigaerr.Wrapf(gigaerr.InconsistentTensorSizes,
			"reshape: %v (strides %v) cannot be reinterpreted as %v without bridging a stride hole", parent.dims(), parent.strides(), dims)
	}

	desc := &Descriptor{
		DeviceID:   parent.DeviceID,
		Rank:       len(dims),
		Kind:       parent.Kind,
		FracShift:  parent.FracShift,
		Storage:    Storage{Tag: Reshape, ParentID: parent.ID},
		ZoneID:     parent.ZoneID,
		BaseOffset: parent.BaseOffset,
	}
	copy(desc.Dims[:], dims)
	copy(desc.Strides[:], newStrides)

	r.mu.Lock()
	r.nextID++
	desc.ID = r.nextID
	r.tensors[desc.ID] = desc
	r.mu.Unlock()

	return desc, nil
}

// reshapeStrides implements invariant 3's non-contiguity rule (§9 open
// question 4): the reference source's worked examples ("3x4x5 strides
// 30,6,1 -> 5x3x4 NOT OK", "2x3x1 strides 6,2,1 -> 3x2x1 OK") match the
// same no-copy reshape test NumPy uses for strided array views, so that is
// what this implements: squeeze out size-1 axes (their stride is free),
// then walk old and new shapes together grouping axes until each side's
// running element count agrees, requiring every old axis inside a group
// (other than the innermost) to be stride-contiguous with the next one,
// and finally filling in the new group's strides by row-major expansion
// from its innermost axis. A group boundary is a place the old tensor is
// already allowed to have a "stride hole"; the new shape may only place
// boundaries where the old one already has them, never inside a run the
// old strides guarantee is contiguous.
func reshapeStrides(oldDims, oldStrides, newDims []int, elementBytes int) ([]int, bool) {
	oShape, oStride := squeezeOnes(oldDims, oldStrides)
	newIdx := nonOneIndices(newDims)
	nShapeSq := make([]int, len(newIdx))
	for i, idx := range newIdx {
		nShapeSq[i] = newDims[idx]
	}

	nStrideSq := make([]int, len(nShapeSq))
	oi, ni := 0, 0
	for oi < len(oShape) && ni < len(nShapeSq) {
		op, np := oShape[oi], nShapeSq[ni]
		oj, nj := oi+1, ni+1
		for op != np {
			if np < op {
				np *= nShapeSq[nj]
				nj++
			} else {
				op *= oShape[oj]
				oj++
			}
		}
		for k := oi; k < oj-1; k++ {
			if oStride[k] != oShape[k+1]*oStride[k+1] {
				return nil, false
			}
		}
		nStrideSq[nj-1] = oStride[oj-1]
		for k := nj - 1; k > ni; k-- {
			nStrideSq[k-1] = nStrideSq[k] * nShapeSq[k]
		}
		oi, ni = oj, nj
	}
	if oi != len(oShape) || ni != len(nShapeSq) {
		return nil, false
	}

	newStrides := make([]int, len(newDims))
	for i, idx := range newIdx {
		newStrides[idx] = nStrideSq[i]
	}
	for i := len(newDims) - 1; i >= 0; i-- {
		if newDims[i] != 1 {
			continue
		}
		if i+1 < len(newDims) {
			newStrides[i] = newStrides[i+1] * newDims[i+1]
		} else {
			newStrides[i] = elementBytes
		}
	}
	return newStrides, true
}

// squeezeOnes drops axes of size 1 from dims/strides -- their stride can
// never create or bridge a hole, so the reshape test ignores them.
func squeezeOnes(dims, strides []int) ([]int, []int) {
	sd := make([]int, 0, len(dims))
	ss := make([]int, 0, len(dims))
	for i, d := range dims {
		if d != 1 {
			sd = append(sd, d)
			ss = append(ss, strides[i])
		}
	}
	return sd, ss
}

// nonOneIndices returns the indices of dims whose value isn't 1.
func nonOneIndices(dims []int) []int {
	idx := make([]int, 0, len(dims))
	for i, d := range dims {
		if d != 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Release discards handle. Owned tensors decrement their zone's tensor
// counter; views and reshapes just forget the handle (§4.E release, §9
// open question 2).
func (r *Registry) Release(id uint64) error {
	r.mu.Lock()
	desc, ok := r.tensors[id]
	if !ok {
		r.mu.Unlock()
		return gigaerr.New(gigaerr.UnknownTensor)
	}
	delete(r.tensors, id)
	r.mu.Unlock()

	if desc.Storage.Tag == Owned {
		if z, err := r.zones.Zone(desc.ZoneID); err == nil {
			z.Release()
		}
	}
	return nil
}

func validateRank(rank int) error {
	if rank < 1 || rank > 4 {
		return gigaerr.Wrapf(gigaerr.InconsistentNumberOfDimensions, "rank must be in {1,2,3,4}, got %d", rank)
	}
	return nil
}
