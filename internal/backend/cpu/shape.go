package cpu

import (
	"github.com/giga-project/giga/internal/tensor"
)

// expandToRank4 left-pads dims/strides with implicit size-1 axes so every
// spatial kernel can iterate a fixed (N,C,H,W) shape regardless of
// whether the caller's tensor is rank 2, 3, or 4 (§4.H/§4.L: "optional N,
// optional C_in, H, W"). The padded axes' strides are never read because
// their extent is always 1.
func expandToRank4(d *tensor.Descriptor) (dims, strides [4]int) {
	pad := 4 - d.Rank
	for i := 0; i < pad; i++ {
		dims[i] = 1
	}
	for i := 0; i < d.Rank; i++ {
		dims[pad+i] = d.Dims[i]
		strides[pad+i] = d.Strides[i]
	}
	return dims, strides
}

// expandToRank2 is expandToRank4's analogue for Dense's (optional N, C_in).
func expandToRank2(d *tensor.Descriptor) (dims, strides [2]int) {
	pad := 2 - d.Rank
	for i := 0; i < pad; i++ {
		dims[i] = 1
	}
	for i := 0; i < d.Rank; i++ {
		dims[pad+i] = d.Dims[i]
		strides[pad+i] = d.Strides[i]
	}
	return dims, strides
}

// lastAxisOffset computes the byte offset of index j along a tensor's
// innermost axis, ignoring any leading axes (which bias tensors of shape
// (C) or (1,C) always have size 1 in per §4.H).
func lastAxisOffset(d *tensor.Descriptor, j int) int {
	return d.BaseOffset + j*d.Strides[d.Rank-1]
}
